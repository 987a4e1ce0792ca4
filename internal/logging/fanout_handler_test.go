package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every child is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single child to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsChildLevels(t *testing.T) {
	var console, file bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled when any child accepts debug")
	}

	logger.Debug("lookup detail")
	logger.Warn("tmdb unavailable")

	if strings.Contains(console.String(), "lookup detail") {
		t.Fatalf("console handler received debug line: %q", console.String())
	}
	if !strings.Contains(console.String(), "tmdb unavailable") {
		t.Fatalf("console handler missing warning: %q", console.String())
	}
	if !strings.Contains(file.String(), "lookup detail") || !strings.Contains(file.String(), "tmdb unavailable") {
		t.Fatalf("file handler missing records: %q", file.String())
	}
}

func TestFanoutHandlerWithAttrsAndGroup(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(newFanoutHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)).With("run_id", "r-1").WithGroup("batch")

	logger.Info("folded", "index", 2)

	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		out := buf.String()
		if !strings.Contains(out, `"run_id":"r-1"`) {
			t.Errorf("%s: missing run_id attr: %q", name, out)
		}
		if !strings.Contains(out, `"batch":{"index":2}`) {
			t.Errorf("%s: missing grouped attr: %q", name, out)
		}
	}
}

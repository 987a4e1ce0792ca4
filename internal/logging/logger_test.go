package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinewrap/internal/config"
	"cinewrap/internal/logging"
	"cinewrap/internal/services"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message", logging.String("title", "Heat"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "cinewrap.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &payload); err != nil {
		t.Fatalf("decode json line: %v (%q)", err, data)
	}
	if payload["msg"] != "debug message" || payload["title"] != "Heat" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if payload["level"] != "debug" {
		t.Fatalf("expected lowercased level, got %v", payload["level"])
	}
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Console: &buf,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "enrich").Info("batch folded",
		logging.Int("processed", 5),
		logging.String("title", "The Thin Red Line"),
		slog.Group("batch", slog.Int("size", 2)),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO enrich: batch folded") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "processed=5") {
		t.Fatalf("expected processed field, got %q", line)
	}
	if !strings.Contains(line, `title="The Thin Red Line"`) {
		t.Fatalf("expected quoted title, got %q", line)
	}
	if !strings.Contains(line, "batch.size=2") {
		t.Fatalf("expected flattened group key, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("info lines should not carry source, got %q", line)
	}
}

func TestConsoleLoggerAppendsSourceLocation(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{
		Format:    "console",
		Level:     "info",
		Console:   &buf,
		AddSource: true,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("stats computed")

	line := buf.String()
	if !strings.Contains(line, "[logger_test.go:") {
		t.Fatalf("expected caller file and line, got %q", line)
	}
}

func TestConsoleLoggerTagsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "enrich")).Info("snapshot emitted")

	line := buf.String()
	if !strings.Contains(line, "INFO enrich [run 1a2b3c4d]: snapshot emitted") {
		t.Fatalf("expected run tag in prefix, got %q", line)
	}
	if strings.Contains(line, "run_id=") {
		t.Fatalf("run id should not repeat as a field, got %q", line)
	}
}

func TestLevelParsing(t *testing.T) {
	tests := []struct {
		level     string
		debugOn   bool
		warnOn    bool
		infoShown bool
	}{
		{level: "debug", debugOn: true, warnOn: true, infoShown: true},
		{level: "warning", warnOn: true},
		{level: "WARN", warnOn: true},
		{level: "bogus", warnOn: true, infoShown: true},
		{level: "", warnOn: true, infoShown: true},
	}
	for _, tc := range tests {
		logger, err := logging.New(logging.Options{Level: tc.level, Console: &bytes.Buffer{}})
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", tc.level, err)
		}
		ctx := context.Background()
		if got := logger.Enabled(ctx, slog.LevelDebug); got != tc.debugOn {
			t.Errorf("level %q: debug enabled=%v", tc.level, got)
		}
		if got := logger.Enabled(ctx, slog.LevelInfo); got != tc.infoShown {
			t.Errorf("level %q: info enabled=%v", tc.level, got)
		}
		if got := logger.Enabled(ctx, slog.LevelWarn); got != tc.warnOn {
			t.Errorf("level %q: warn enabled=%v", tc.level, got)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsRunAndRequestIDs(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-42")
	ctx = services.WithRequestID(ctx, "req-7")
	logging.WithContext(ctx, base).Info("snapshot emitted")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-42"`) || !strings.Contains(out, `"correlation_id":"req-7"`) {
		t.Fatalf("expected context fields, got %q", out)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "lookup failed", "tmdb_lookup_failed",
		logging.String(logging.FieldImpact, "film skipped in leaderboards"),
	)

	out := buf.String()
	for _, want := range []string{
		`"event_type":"tmdb_lookup_failed"`,
		`"error_hint":"check logs for details"`,
		`"impact":"film skipped in leaderboards"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %q", want, out)
		}
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "noop")
}

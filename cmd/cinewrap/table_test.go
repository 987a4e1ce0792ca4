package main

import (
	"strings"
	"testing"
)

func TestRenderTableKeepsHeaderCase(t *testing.T) {
	out := renderTable(
		[]string{"Top rated", "Year"},
		[][]string{{"Heat", "1995"}, {"Ran"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "Top rated") {
		t.Fatalf("expected header as written, got:\n%s", out)
	}
	if strings.Contains(out, "TOP RATED") {
		t.Fatalf("header should not be upper-cased:\n%s", out)
	}
	if !strings.Contains(out, "Ran") {
		t.Fatalf("short rows should still render:\n%s", out)
	}
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

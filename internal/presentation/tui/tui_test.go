package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	if lines := strings.Count(buf.String(), "\n"); lines != 7 {
		t.Errorf("Expected 7 lines, got %d", lines)
	}
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(60)
	out, err := render("# Week 1\n\n- Squats 3x10\n")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.Contains(out, "Squats") {
		t.Errorf("Expected rendered output to keep the content, got %q", out)
	}
}

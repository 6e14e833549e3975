package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	// WHY: Verifies all documented log level strings map to the correct
	// slog.Level, including the "warn"/"warning" alias, mixed case, and the
	// default fallback for unknown input.
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "empty", input: "", want: slog.LevelInfo},
		{name: "warning", input: "warning", want: slog.LevelWarn},
		{name: "warn_alias", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "uppercase", input: "DEBUG", want: slog.LevelDebug},
		{name: "unknown_defaults_info", input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "info", "json")
		if err != nil {
			t.Fatal(err)
		}
		logger.Debug("hidden")
		logger.Info("resolved", "alias", "partner")
		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
		}
		if rec["alias"] != "partner" {
			t.Errorf("alias = %v", rec["alias"])
		}
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "debug", "text")
		if err != nil {
			t.Fatal(err)
		}
		logger.Debug("probing", "format", "JKS")
		if !strings.Contains(buf.String(), "format=JKS") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("unknown_format", func(t *testing.T) {
		t.Parallel()
		if _, err := NewLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

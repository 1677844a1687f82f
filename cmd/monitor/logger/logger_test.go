package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/HatiCode/plantwater/cmd/monitor/config"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		logger := New(&config.Config{LogFormat: format, LogLevel: "info"})
		if logger == nil {
			t.Fatalf("New(%s) returned nil", format)
		}
		logger.Info("test message")
	}
}

func TestNew_LogLevels(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		logLevel string
		enabled  slog.Level
		disabled slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"WARN", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"invalid", slog.LevelInfo, slog.LevelDebug},
		{"", slog.LevelInfo, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			logger := New(&config.Config{LogFormat: "text", LogLevel: tt.logLevel})
			if !logger.Enabled(ctx, tt.enabled) {
				t.Errorf("level %v disabled, want enabled", tt.enabled)
			}
			if logger.Enabled(ctx, tt.disabled) {
				t.Errorf("level %v enabled, want disabled", tt.disabled)
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&config.Config{LogFormat: "JSON", LogLevel: "info", Plant: "fern"}, &buf)
	logger.Info("tick complete", "soil", 0.42)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "tick complete" {
		t.Errorf("msg = %v, want tick complete", entry["msg"])
	}
	if entry["plant"] != "fern" {
		t.Errorf("plant = %v, want fern", entry["plant"])
	}
	if entry["soil"] != 0.42 {
		t.Errorf("soil = %v, want 0.42", entry["soil"])
	}
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&config.Config{LogFormat: "text", LogLevel: "debug", Plant: "fern"}, &buf)
	logger.Debug("debug message")

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "msg=\"debug message\"", "plant=fern"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

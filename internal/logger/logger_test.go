package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestConfigureWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	ConfigureWriter(&buf, "debug", "json")

	Error("storage write failed", errors.New("disk full"), "key", "docs")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "storage write failed" {
		t.Errorf("Unexpected msg: %v", entry["msg"])
	}
	if entry["error"] != "disk full" {
		t.Errorf("Expected error attribute, got %v", entry["error"])
	}
	if entry["key"] != "docs" {
		t.Errorf("Expected key attribute, got %v", entry["key"])
	}
}

func TestConfigureWriterTextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	ConfigureWriter(&buf, "warn", "text")

	Info("hidden")
	Debug("hidden too")
	Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info/Debug should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("Warn should be logged: %q", out)
	}
	if Get() == nil {
		t.Error("Get should return the configured logger")
	}
}

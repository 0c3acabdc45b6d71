package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level)
			if log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Level
		wantOK bool
	}{
		{"debug", "debug", LevelDebug, true},
		{"upper case", "WARN", LevelWarn, true},
		{"warning alias", "warning", LevelWarn, true},
		{"padded", " error ", LevelError, true},
		{"unknown falls back to info", "loud", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    Level
		shouldLog   bool
	}{
		{"debug logs at debug level", "debug", LevelDebug, true},
		{"info logs at debug level", "debug", LevelInfo, true},
		{"debug doesn't log at info level", "info", LevelDebug, false},
		{"info logs at info level", "info", LevelInfo, true},
		{"error always logs", "debug", LevelError, true},
		{"warn doesn't log at error level", "error", LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.configLevel).(*implLogger)
			result := log.shouldLog(tt.logLevel)
			if result != tt.shouldLog {
				t.Errorf("shouldLog() = %v, want %v", result, tt.shouldLog)
			}
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Debug(ctx, "hidden %d", 1)
	log.Info(ctx, "watching %s", "/tmp/root")
	log.Error(ctx, "source failed: %v", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "[INFO] watching /tmp/root") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] source failed: boom") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestNopDiscards(t *testing.T) {
	log := NewNop().(*implLogger)
	if log.shouldLog(LevelError) {
		t.Error("NewNop() logger should not log errors")
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LevelInfo)

	if logger == nil {
		t.Fatal("Expected non-nil logger")
	}

	if logger.minLevel != LevelInfo {
		t.Errorf("Expected minLevel to be %s, got %s", LevelInfo, logger.minLevel)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLevel(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		name     string
		minLevel Level
		logLevel Level
		want     bool
	}{
		{"debug logs when min is debug", LevelDebug, LevelDebug, true},
		{"info logs when min is debug", LevelDebug, LevelInfo, true},
		{"error logs when min is debug", LevelDebug, LevelError, true},
		{"debug does not log when min is info", LevelInfo, LevelDebug, false},
		{"info logs when min is info", LevelInfo, LevelInfo, true},
		{"error logs when min is info", LevelInfo, LevelError, true},
		{"info does not log when min is error", LevelError, LevelInfo, false},
		{"error logs when min is error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.minLevel)
			got := logger.shouldLog(tt.logLevel)
			if got != tt.want {
				t.Errorf("shouldLog() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelInfo, &buf)

	payload := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	logger.Log(LevelInfo, "test.event", "Test message", payload)

	var event Event
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if event.Level != LevelInfo {
		t.Errorf("Expected level %s, got %s", LevelInfo, event.Level)
	}

	if event.Type != "test.event" {
		t.Errorf("Expected type 'test.event', got %s", event.Type)
	}

	if event.Message != "Test message" {
		t.Errorf("Expected message 'Test message', got %s", event.Message)
	}

	if event.Payload["key"] != "value" {
		t.Errorf("Expected payload key 'key' to be 'value', got %v", event.Payload["key"])
	}

	if event.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelWarn, &buf)

	// Below the minimum level, must be dropped
	logger.Info("test.filtered", "Should not appear", nil)

	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("Expected no output for filtered log, got: %s", buf.String())
	}

	logger.Warn("test.kept", "Should appear", nil)

	if !strings.Contains(buf.String(), "test.kept") {
		t.Errorf("Expected output to contain 'test.kept', got: %s", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "events", "procmon.log")

	logger, err := NewFileLogger(LevelInfo, logPath)
	if err != nil {
		t.Fatalf("Failed to create file logger: %v", err)
	}
	defer logger.Close()

	logger.Info("test.file", "File message", nil)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if !strings.Contains(string(data), "test.file") {
		t.Errorf("Expected log file to contain 'test.file', got: %s", data)
	}
}

func TestLogger_Close_Idempotent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "procmon.log")

	logger, err := NewFileLogger(LevelInfo, logPath)
	if err != nil {
		t.Fatalf("Failed to create file logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First Close() returned error: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Second Close() returned error: %v", err)
	}
}

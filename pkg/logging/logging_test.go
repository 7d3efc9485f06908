package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		level  LogLevel
		wantOK bool
	}{
		{"debug", "debug", LevelDebug, true},
		{"upper case", "WARN", LevelWarn, true},
		{"warning alias", "warning", LevelWarn, true},
		{"empty defaults to info", "", LevelInfo, true},
		{"error", " error ", LevelError, true},
		{"unknown", "verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	require.NotNil(t, current(), "Expected defaultLogger to be set after InitForCLI")

	Info("test-subsystem", "test message %d", 42)

	output := buf.String()
	assert.Contains(t, output, "test message 42")
	assert.Contains(t, output, "subsystem=test-subsystem")
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	// Initialize with INFO level
	InitForCLI(LevelInfo, &buf)

	// Debug should be filtered out
	Debug("test", "debug message")

	// Info should appear
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}

	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}

func TestError_IncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("Storage", errors.New("disk full"), "failed to write %s", "tokens.json")

	output := buf.String()
	assert.Contains(t, output, "failed to write tokens.json")
	assert.Contains(t, output, `error="disk full"`)
}

func TestInitWithFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithFormat(LevelInfo, &buf, FormatJSON)

	Warn("Config", "falling back to defaults")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "Config", record["subsystem"])
	assert.Equal(t, "falling back to defaults", record["msg"])
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	InitWithFormat(LevelInfo, &buf, FormatJSON)

	Audit(AuditEvent{
		Action:  "return_submitted",
		Outcome: "success",
		Subject: "123456789",
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "[AUDIT] return_submitted", record["msg"])
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "success", record["outcome"])
	assert.Equal(t, "123456789", record["subject"])
}

func TestAudit_FailureLogsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	InitWithFormat(LevelWarn, &buf, FormatJSON)

	Audit(AuditEvent{
		Action:  "token_refresh",
		Outcome: "failure",
		Err:     errors.New("invalid_grant"),
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "invalid_grant", record["error"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))
	assert.Equal(t, "12345678", Truncate("12345678"))
	assert.Equal(t, "abcdefgh...", Truncate("abcdefghijklmnop"))
}

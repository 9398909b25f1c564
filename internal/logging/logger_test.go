package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevelRecognizesKnownLevels(t *testing.T) {
	cases := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" DEBUG ", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, testCase := range cases {
		if got := parseLevel(testCase.input); got != testCase.expected {
			t.Fatalf("parseLevel(%q) = %v, expected %v", testCase.input, got, testCase.expected)
		}
	}
}

func TestNewLoggerBuilds(t *testing.T) {
	logger, err := NewLogger("debug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerWithWriter(t *testing.T) {
	t.Setenv("ASMCAP_LOG_LEVEL", "")
	t.Setenv("ASMCAP_LOG_PREFIX", "")
	t.Setenv("ASMCAP_NO_COLOR", "1")

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)
	logger.Warn("dropped untracked operands", "count", 3)

	out := buf.String()
	if !strings.Contains(out, "asmcap") {
		t.Errorf("Log line missing default prefix: %q", out)
	}
	if !strings.Contains(out, "dropped untracked operands") {
		t.Errorf("Log line missing message: %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("Log line missing key-value pair: %q", out)
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("ASMCAP_LOG_LEVEL", "error")
	t.Setenv("ASMCAP_NO_COLOR", "1")

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)
	logger.Info("should be suppressed")

	if buf.Len() != 0 {
		t.Errorf("Info logged despite error level: %q", buf.String())
	}
}

func TestIsDebug(t *testing.T) {
	t.Setenv("ASMCAP_LOG_LEVEL", "debug")
	if !IsDebug() {
		t.Error("IsDebug() = false with ASMCAP_LOG_LEVEL=debug")
	}
	t.Setenv("ASMCAP_LOG_LEVEL", "info")
	if IsDebug() {
		t.Error("IsDebug() = true with ASMCAP_LOG_LEVEL=info")
	}
}

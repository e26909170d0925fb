package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetup(t *testing.T) {
	defer SetGlobal(nil, false)

	var buf bytes.Buffer
	Setup(&buf, false)
	Get().Debug("hidden")
	Get().Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug message logged at info level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("info message missing: %s", buf.String())
	}
	if IsDebug() {
		t.Error("expected debug disabled")
	}

	buf.Reset()
	Setup(&buf, true)
	Get().Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug message missing: %s", buf.String())
	}
	if !IsDebug() {
		t.Error("expected debug enabled")
	}
}

func TestGetFallback(t *testing.T) {
	SetGlobal(nil, false)
	if Get() == nil {
		t.Fatal("expected fallback logger")
	}
}

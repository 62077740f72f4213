package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureOutput routes the default logger into a buffer for the duration of the test.
func captureOutput(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLevel(level)
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(slog.LevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetVerbose(t *testing.T) {
	buf := captureOutput(t, slog.LevelInfo)

	Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug message logged at info level")
	}

	SetVerbose(true)
	SetOutput(buf)
	Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug message missing after SetVerbose(true): %q", buf.String())
	}
}

func TestLevelHelpers(t *testing.T) {
	buf := captureOutput(t, slog.LevelDebug)
	ctx := context.Background()

	Info("info-msg", "k", "v")
	InfoContext(ctx, "info-ctx-msg")
	Debug("debug-msg")
	DebugContext(ctx, "debug-ctx-msg")
	Warn("warn-msg")
	WarnContext(ctx, "warn-ctx-msg")
	Error("error-msg")
	ErrorContext(ctx, "error-ctx-msg")
	Trace(ctx, "trace-msg")

	out := buf.String()
	for _, want := range []string{
		"info-msg", "k=v", "info-ctx-msg", "debug-msg", "debug-ctx-msg",
		"warn-msg", "warn-ctx-msg", "error-msg", "error-ctx-msg",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "trace-msg") {
		t.Error("trace message logged at debug level")
	}
}

func TestStoreCall(t *testing.T) {
	buf := captureOutput(t, slog.LevelDebug)
	ctx := WithPrompt(WithStore(context.Background(), "memory"), "greet")

	StoreCall(ctx, "load", 3*time.Millisecond, nil, slog.LevelWarn)
	StoreCall(ctx, "save", time.Millisecond, errors.New("disk full"), slog.LevelError, "resource", "prompt")

	out := buf.String()
	if !strings.Contains(out, "msg=\"store call\"") || !strings.Contains(out, "op=load") {
		t.Errorf("success line missing: %q", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "error=\"disk full\"") {
		t.Errorf("failure line missing: %q", out)
	}
	if !strings.Contains(out, "store=memory") || !strings.Contains(out, "prompt=greet") {
		t.Errorf("context fields missing: %q", out)
	}
	if !strings.Contains(out, "resource=prompt") {
		t.Errorf("extra attrs missing: %q", out)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewJSONHandler(&buf, nil))
	SetLogger(custom)
	t.Cleanup(func() { SetLogger(nil) })

	if err := Configure(&LoggingConfigSpec{DefaultLevel: "error"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if DefaultLogger != custom {
		t.Fatal("Configure replaced a logger installed with SetLogger")
	}

	Info("through custom")
	if !strings.Contains(buf.String(), `"msg":"through custom"`) {
		t.Errorf("custom logger not used: %q", buf.String())
	}
}

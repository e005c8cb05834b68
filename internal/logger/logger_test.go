package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"WARNING": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCtx_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewSlogLogger(Config{Level: LevelInfo, Format: "json", Output: &buf})

	ctx := WithLogger(context.Background(), base)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithEntryID(ctx, "entry-1")
	ctx = WithWeekStart(ctx, "2026-10-12")

	Ctx(ctx).Info("advice generated", String("source", "ai"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	want := map[string]string{
		"msg":        "advice generated",
		"request_id": "req-1",
		"user_id":    "user-1",
		"entry_id":   "entry-1",
		"week_start": "2026-10-12",
		"source":     "ai",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("field %s = %v, want %q", k, line[k], v)
		}
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestIDFromContext(ctx) == "" {
		t.Error("expected a generated request id")
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop().With(String("k", "v"))
	l.Debug("debug")
	l.Error("error", Err(nil))
}

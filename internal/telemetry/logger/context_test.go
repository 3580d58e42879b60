// Package logger provides structured logging for ChatVault.
package logger

import (
	"context"
	"strings"
	"testing"
)

func TestLoggerContextRoundTrip(t *testing.T) {
	l := Discard()
	ctx := WithLogger(context.Background(), l)

	if got := FromContext(ctx); got != l {
		t.Error("FromContext did not return the stored logger")
	}
	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext without logger should fall back to default")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want req-123", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context request id = %q, want empty", got)
	}
}

func TestAttemptIDContext(t *testing.T) {
	ctx := WithAttemptID(context.Background(), "cvat-abc")
	if got := AttemptIDFromContext(ctx); got != "cvat-abc" {
		t.Errorf("AttemptIDFromContext() = %q, want cvat-abc", got)
	}
}

func TestLEnrichesWithIDs(t *testing.T) {
	l, buf := newTestLogger(t, Config{Level: "info", Format: "json"})

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithAttemptID(ctx, "cvat-1")

	L(ctx).Info("working")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("request id missing: %s", out)
	}
	if !strings.Contains(out, `"attempt_id":"cvat-1"`) {
		t.Errorf("attempt id missing: %s", out)
	}
}

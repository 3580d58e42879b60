package deepcopy

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
)

func newTestChannel(t *testing.T) *Channel {
	t.Helper()
	c, err := New(Config{}, logger.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestChannelCopyRoundTrip(t *testing.T) {
	c := newTestChannel(t)

	msgs := []domain.Message{
		{"text": "hello", "index": 0},
		{"text": "world", "swipes": []any{"a", "b"}},
	}
	meta := domain.Metadata{"theme": "dark"}

	res, err := c.Copy(context.Background(), msgs, meta)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if !reflect.DeepEqual(res.Messages, msgs) {
		t.Errorf("messages = %#v, want %#v", res.Messages, msgs)
	}
	if !reflect.DeepEqual(res.Metadata, meta) {
		t.Errorf("metadata = %#v, want %#v", res.Metadata, meta)
	}

	// Result must be independent of the source.
	msgs[0]["text"] = "mutated"
	if res.Messages[0]["text"] != "hello" {
		t.Error("copy aliases source payload")
	}
}

func TestChannelCopyConcurrent(t *testing.T) {
	c := newTestChannel(t)

	const n = 20
	errc := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			msgs := []domain.Message{{"index": i}}
			res, err := c.Copy(context.Background(), msgs, nil)
			if err != nil {
				errc <- err
				return
			}
			if res.Messages[0]["index"] != i {
				errc <- errors.New("response correlated to wrong request")
				return
			}
			errc <- nil
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errc; err != nil {
			t.Errorf("concurrent copy: %v", err)
		}
	}
}

func TestChannelPerRequestErrorDoesNotFailChannel(t *testing.T) {
	c := newTestChannel(t)

	// A payload neither structurally cloneable nor serializable yields a
	// per-request error.
	bad := []domain.Message{{"ch": make(chan int)}}
	if _, err := c.Copy(context.Background(), bad, nil); !domain.IsDomainError(err, domain.ErrCopyFailed.Code) {
		t.Fatalf("Copy(bad) error = %v, want %s", err, domain.ErrCopyFailed.Code)
	}

	if c.Failed() {
		t.Fatal("per-request error must not fail the channel")
	}

	// The channel keeps serving subsequent requests.
	res, err := c.Copy(context.Background(), []domain.Message{{"text": "ok"}}, nil)
	if err != nil {
		t.Fatalf("Copy() after request error = %v", err)
	}
	if res.Messages[0]["text"] != "ok" {
		t.Errorf("text = %v, want ok", res.Messages[0]["text"])
	}
}

func TestChannelFailClosedAndRecreate(t *testing.T) {
	c := newTestChannel(t)

	c.fail(errors.New("worker crashed"))

	if !c.Failed() {
		t.Fatal("Failed() = false after fail")
	}
	if _, err := c.Copy(context.Background(), []domain.Message{{"text": "x"}}, nil); !domain.IsDomainError(err, domain.ErrCopyChannelUnavailable.Code) {
		t.Fatalf("Copy() on failed channel error = %v, want %s", err, domain.ErrCopyChannelUnavailable.Code)
	}

	c.Recreate()

	if c.Failed() {
		t.Fatal("Failed() = true after Recreate")
	}
	res, err := c.Copy(context.Background(), []domain.Message{{"text": "back"}}, nil)
	if err != nil {
		t.Fatalf("Copy() after Recreate error = %v", err)
	}
	if res.Messages[0]["text"] != "back" {
		t.Errorf("text = %v, want back", res.Messages[0]["text"])
	}
}

func TestChannelFailPurgesPending(t *testing.T) {
	c := newTestChannel(t)

	done := make(chan response, 1)
	c.pending.Set(41, done)

	c.fail(errors.New("boom"))

	select {
	case resp := <-done:
		if !domain.IsDomainError(resp.err, domain.ErrCopyChannelUnavailable.Code) {
			t.Errorf("purged response error = %v, want %s", resp.err, domain.ErrCopyChannelUnavailable.Code)
		}
	case <-time.After(time.Second):
		t.Fatal("pending request was not purged on failure")
	}
	if c.pending.Count() != 0 {
		t.Errorf("pending count = %d, want 0", c.pending.Count())
	}
}

func TestChannelCloseRejectsCopy(t *testing.T) {
	c, err := New(Config{QueueSize: 2}, logger.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.Close()

	if _, err := c.Copy(context.Background(), []domain.Message{{"text": "x"}}, nil); !domain.IsDomainError(err, domain.ErrCopyChannelUnavailable.Code) {
		t.Errorf("Copy() after Close error = %v, want %s", err, domain.ErrCopyChannelUnavailable.Code)
	}

	// Close is idempotent.
	c.Close()
}

func TestChannelCopyContextCancelled(t *testing.T) {
	c := newTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The worker may win the race and resolve the request anyway; what
	// matters is that a cancelled wait reports context.Canceled and never
	// leaks its correlation entry.
	_, err := c.Copy(ctx, []domain.Message{{"text": "x"}}, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Copy() error = %v, want context.Canceled or nil", err)
	}
	if n := c.pending.Count(); n != 0 {
		t.Errorf("pending count = %d, want 0", n)
	}
}

func TestNewRejectsNegativeQueueSize(t *testing.T) {
	if _, err := New(Config{QueueSize: -1}, logger.Discard()); err == nil {
		t.Fatal("New() with negative queue size succeeded")
	}
}

func TestInlineCopy(t *testing.T) {
	msgs := []domain.Message{{"text": "hi"}}
	meta := domain.Metadata{"k": "v"}

	res, err := Inline{}.Copy(context.Background(), msgs, meta)
	if err != nil {
		t.Fatalf("Inline.Copy() error = %v", err)
	}
	if !reflect.DeepEqual(res.Messages, msgs) || !reflect.DeepEqual(res.Metadata, meta) {
		t.Errorf("Inline.Copy() = %#v, want source equivalent", res)
	}
	msgs[0]["text"] = "changed"
	if res.Messages[0]["text"] != "hi" {
		t.Error("Inline.Copy aliases source")
	}
}

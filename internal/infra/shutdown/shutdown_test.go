package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
)

func newTestHandler() *Handler {
	return NewHandler(5*time.Second, logger.Discard())
}

func TestHooksRunInReverseOrder(t *testing.T) {
	h := newTestHandler()

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown(func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()
	time.Sleep(50 * time.Millisecond)
	h.Trigger()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("ran %d hooks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hook order = %v, want %v", order, want)
		}
	}
}

func TestWaitReturnsLastHookError(t *testing.T) {
	h := newTestHandler()
	hookErr := errors.New("store close failed")

	h.OnShutdown(func(context.Context) error { return hookErr })
	h.OnShutdown(func(context.Context) error { return nil })

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()
	time.Sleep(50 * time.Millisecond)
	h.Trigger()

	select {
	case err := <-errCh:
		if !errors.Is(err, hookErr) {
			t.Errorf("Wait() error = %v, want %v", err, hookErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return")
	}
}

func TestWaitOnSignal(t *testing.T) {
	h := newTestHandler()

	var ran bool
	h.OnShutdown(func(context.Context) error {
		ran = true
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()
	time.Sleep(50 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after SIGTERM")
	}
	if !ran {
		t.Error("hook did not run")
	}
}

func TestDoneClosesAfterWait(t *testing.T) {
	h := newTestHandler()

	select {
	case <-h.Done():
		t.Fatal("Done() closed before shutdown")
	default:
	}

	go h.Wait()
	time.Sleep(50 * time.Millisecond)
	h.Trigger()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() did not close")
	}
}

func TestTriggerIdempotent(t *testing.T) {
	h := newTestHandler()
	h.Trigger()
	h.Trigger()
}

func TestConcurrentOnShutdown(t *testing.T) {
	h := newTestHandler()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown(func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("registered %d hooks, want 10", len(h.hooks))
	}
}

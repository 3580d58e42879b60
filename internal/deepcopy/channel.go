// Package deepcopy offloads structural deep copies of conversation payloads.
package deepcopy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/pkg/cmap"
)

// DefaultQueueSize is the default request queue depth.
const DefaultQueueSize = 8

// Result carries the deep-copied payload back to the caller.
type Result struct {
	Messages []domain.Message
	Metadata domain.Metadata
}

// request crosses to the worker by value.
type request struct {
	id       uint64
	messages []domain.Message
	metadata domain.Metadata
}

// response crosses back from the worker, correlated by id.
type response struct {
	id       uint64
	messages []domain.Message
	metadata domain.Metadata
	err      error
}

// Config configures the copy channel.
type Config struct {
	// QueueSize is the request queue depth. Zero means DefaultQueueSize.
	QueueSize int
}

// Channel performs deep copies on a dedicated worker goroutine.
//
// The worker shares no mutable memory with callers; the pending map is
// the only correlation bookkeeping and entries never dangle: every
// registered id is resolved by the dispatcher or purged on channel
// failure and teardown.
type Channel struct {
	log       logger.Logger
	queueSize int

	// pending maps request id to the completion the caller awaits.
	pending *cmap.Map[uint64, chan response]
	nextID  atomic.Uint64

	mu        sync.Mutex
	requests  chan request
	responses chan response
	stopCh    chan struct{}
	failedCh  chan struct{}
	failed    atomic.Bool
	closed    atomic.Bool
}

// New creates the copy channel and starts its worker and dispatcher.
func New(cfg Config, log logger.Logger) (*Channel, error) {
	if cfg.QueueSize < 0 {
		return nil, fmt.Errorf("deepcopy: queue size must not be negative")
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	c := &Channel{
		log:       log,
		queueSize: cfg.QueueSize,
		pending:   cmap.New[uint64, chan response](),
	}
	c.start()
	return c, nil
}

// start spins up a fresh worker/dispatcher pair. Caller must hold no
// expectations about the previous pair; it is only called from New and
// Recreate.
func (c *Channel) start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = make(chan request, c.queueSize)
	c.responses = make(chan response, c.queueSize)
	c.stopCh = make(chan struct{})
	c.failedCh = make(chan struct{})
	c.failed.Store(false)

	go c.worker(c.requests, c.responses, c.stopCh)
	go c.dispatch(c.responses, c.stopCh, c.failedCh)
}

// Copy deep-copies messages and metadata on the worker and awaits the
// correlated response. Each of messages/metadata is copied
// independently: structural clone, then JSON round trip, then a typed
// copy error.
func (c *Channel) Copy(ctx context.Context, messages []domain.Message, metadata domain.Metadata) (*Result, error) {
	if c.closed.Load() {
		return nil, domain.ErrCopyChannelUnavailable.WithDetails("channel closed")
	}
	if c.failed.Load() {
		return nil, domain.ErrCopyChannelUnavailable.WithDetails("channel failed, recreate required")
	}

	c.mu.Lock()
	requests := c.requests
	stopCh := c.stopCh
	failedCh := c.failedCh
	c.mu.Unlock()

	id := c.nextID.Add(1)
	done := make(chan response, 1)
	c.pending.Set(id, done)

	select {
	case requests <- request{id: id, messages: messages, metadata: metadata}:
	case <-failedCh:
		c.pending.Delete(id)
		return nil, domain.ErrCopyChannelUnavailable.WithDetails("channel failed, recreate required")
	case <-stopCh:
		c.pending.Delete(id)
		return nil, domain.ErrCopyChannelUnavailable.WithDetails("channel closed")
	case <-ctx.Done():
		c.pending.Delete(id)
		return nil, ctx.Err()
	}

	select {
	case resp := <-done:
		if resp.err != nil {
			return nil, resp.err
		}
		return &Result{Messages: resp.messages, Metadata: resp.metadata}, nil
	case <-ctx.Done():
		// The dispatcher resolves or the failure path purges the entry;
		// remove it here too so an abandoned wait never leaks.
		c.pending.Delete(id)
		return nil, ctx.Err()
	}
}

// Recreate tears down the failed worker pair and starts a new one.
// Until called, a failed channel rejects every request.
func (c *Channel) Recreate() {
	if c.closed.Load() {
		return
	}
	c.log.Warn("recreating copy channel")
	c.mu.Lock()
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	c.mu.Unlock()
	c.start()
}

// Close tears down the channel. Pending requests are rejected.
func (c *Channel) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	c.mu.Unlock()
	c.purgePending(domain.ErrCopyChannelUnavailable.WithDetails("channel closed"))
}

// Failed reports whether the channel is failed and needs recreation.
func (c *Channel) Failed() bool {
	return c.failed.Load()
}

// worker computes deep copies. A panic here is a channel-level failure,
// not a per-request one.
func (c *Channel) worker(requests <-chan request, responses chan<- response, stopCh <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(fmt.Errorf("copy worker panic: %v", r))
		}
	}()

	for {
		select {
		case <-stopCh:
			return
		case req := <-requests:
			resp := response{id: req.id}
			resp.messages, resp.err = cloneMessages(req.messages)
			if resp.err == nil {
				resp.metadata, resp.err = cloneMetadata(req.metadata)
			}
			select {
			case responses <- resp:
			case <-stopCh:
				return
			}
		}
	}
}

// dispatch resolves pending completions by id.
func (c *Channel) dispatch(responses <-chan response, stopCh, failedCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-failedCh:
			return
		case resp := <-responses:
			if done, ok := c.pending.Pop(resp.id); ok {
				done <- resp
			}
		}
	}
}

// fail marks the channel failed and rejects every pending request.
func (c *Channel) fail(cause error) {
	if !c.failed.CompareAndSwap(false, true) {
		return
	}
	c.log.Error("copy channel failed", "error", cause)

	c.mu.Lock()
	select {
	case <-c.failedCh:
	default:
		close(c.failedCh)
	}
	c.mu.Unlock()

	c.purgePending(domain.ErrCopyChannelUnavailable.WithCause(cause))
}

// purgePending rejects all registered completions with err.
func (c *Channel) purgePending(err *domain.DomainError) {
	for _, id := range c.pending.Keys() {
		if done, ok := c.pending.Pop(id); ok {
			done <- response{id: id, err: err}
		}
	}
}

// Inline is the synchronous fallback copier for degraded mode: same
// copy semantics, executed on the caller's goroutine.
type Inline struct{}

// Copy deep-copies messages and metadata synchronously.
func (Inline) Copy(_ context.Context, messages []domain.Message, metadata domain.Metadata) (*Result, error) {
	msgs, err := cloneMessages(messages)
	if err != nil {
		return nil, err
	}
	meta, err := cloneMetadata(metadata)
	if err != nil {
		return nil, err
	}
	return &Result{Messages: msgs, Metadata: meta}, nil
}

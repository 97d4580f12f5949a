package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/conduit/pkg/providers"
)

// ErrScripted is the default failure returned by scripted handlers.
var ErrScripted = errors.New("scripted handler failure")

// Handler is a scriptable providers.Handler that counts its invocations.
type Handler struct {
	name string

	mu       sync.Mutex
	failures int
	err      error
	delay    time.Duration
	block    chan struct{}

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

// NewHandler returns a handler that always succeeds, answering as provider
// name.
func NewHandler(name string) *Handler {
	return &Handler{name: name, err: ErrScripted}
}

// FailTimes makes the next n invocations fail.
func (h *Handler) FailTimes(n int) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = n
	return h
}

// AlwaysFail makes every invocation fail.
func (h *Handler) AlwaysFail() *Handler {
	return h.FailTimes(-1)
}

// WithError sets the error returned by failing invocations.
func (h *Handler) WithError(err error) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
	return h
}

// WithDelay makes every invocation sleep before answering.
func (h *Handler) WithDelay(d time.Duration) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.delay = d
	return h
}

// Block makes invocations wait until Release is called or ctx is done.
func (h *Handler) Block() *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.block = make(chan struct{})
	return h
}

// Release unblocks every waiting and future invocation.
func (h *Handler) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.block != nil {
		close(h.block)
		h.block = nil
	}
}

// Calls returns the number of invocations so far.
func (h *Handler) Calls() int {
	return int(h.calls.Load())
}

// InFlight returns the number of invocations currently running.
func (h *Handler) InFlight() int {
	return int(h.inFlight.Load())
}

// MaxConcurrent returns the highest number of simultaneous invocations seen.
func (h *Handler) MaxConcurrent() int {
	return int(h.maxSeen.Load())
}

// Handle implements providers.Handler.
func (h *Handler) Handle(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	h.calls.Add(1)
	n := h.inFlight.Add(1)
	defer h.inFlight.Add(-1)
	for {
		seen := h.maxSeen.Load()
		if n <= seen || h.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	h.mu.Lock()
	fail := h.failures != 0
	if h.failures > 0 {
		h.failures--
	}
	err, delay, block := h.err, h.delay, h.block
	h.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fail {
		return nil, err
	}
	return &providers.Response{
		Text:     "response from " + h.name,
		Model:    req.Model,
		Provider: h.name,
	}, nil
}

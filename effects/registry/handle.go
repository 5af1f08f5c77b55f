package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickb777/date/v2/timespan"

	"github.com/woodycatliu/Processor/effects"
)

// Handle is the live cancellation handle of one running effect.
//
// A handle is bound to at most one (registry, id) pair. It reaches its
// terminal state exactly once, either through Cancel or Finish, and
// deregisters itself at that moment.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	id  effects.ID
	reg *Registry

	started   time.Time
	ended     atomic.Pointer[time.Time]
	requested atomic.Bool
	finished  atomic.Bool
	done      chan struct{}
	once      sync.Once
}

// NewHandle creates an unregistered handle whose context derives from parent.
func NewHandle(parent context.Context) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// ID returns the id the handle was registered under, or "".
func (h *Handle) ID() effects.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

// Context is cancelled when the handle is cancelled or finished.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Done is closed once the handle reached its terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancelled reports whether cancellation was requested, as opposed to the
// effect completing on its own.
func (h *Handle) Cancelled() bool {
	return h.requested.Load()
}

// Finished reports whether the handle reached its terminal state.
func (h *Handle) Finished() bool {
	return h.finished.Load()
}

// Cancel tears the effect down and deregisters the handle. Idempotent.
func (h *Handle) Cancel() {
	h.terminate(true)
}

// Finish marks natural completion and deregisters the handle. Idempotent,
// and a no-op after Cancel.
func (h *Handle) Finish() {
	h.terminate(false)
}

// Lifetime spans from handle creation to its terminal event, or to now while
// the handle is still live.
func (h *Handle) Lifetime() timespan.TimeSpan {
	end := time.Now()
	if e := h.ended.Load(); e != nil {
		end = *e
	}
	return timespan.BetweenTimes(h.started, end)
}

func (h *Handle) terminate(requested bool) {
	h.once.Do(func() {
		h.requested.Store(requested)
		now := time.Now()
		h.ended.Store(&now)
		// set before deregistering so a racing Register sees it
		h.finished.Store(true)
		h.cancel()

		h.mu.Lock()
		reg, id := h.reg, h.id
		h.mu.Unlock()
		if reg != nil {
			reg.deregister(id, h)
		}
		close(h.done)
	})
}

// bind ties the handle to a registry slot. It reports false when the handle is
// already bound elsewhere.
func (h *Handle) bind(reg *Registry, id effects.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reg != nil {
		return h.reg == reg && h.id == id
	}
	h.reg, h.id = reg, id
	return true
}

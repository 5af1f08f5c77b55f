package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/woodycatliu/Processor/effects"
	"github.com/woodycatliu/Processor/effects/log"
	"github.com/woodycatliu/Processor/effects/registry"
	"github.com/woodycatliu/Processor/internal/queue"
	"github.com/woodycatliu/Processor/metrics"
	"github.com/woodycatliu/Processor/processor/internal/subject"
)

// ErrClosed is returned by TrySend once the processor has been closed.
var ErrClosed = errors.New("processor closed")

var processorSeq atomic.Uint64

// delivery is one effect output waiting in the mailbox, tagged with the
// handle of the effect that produced it.
type delivery[P any] struct {
	handle *registry.Handle
	action P
}

// Processor owns a state of type S and mutates it through Reducer.
//
// A is the public action type, P the private action type reduced by the
// reducer and emitted by effects, and E the environment handed to every
// reduce. All methods are safe for concurrent use, but Close must not be
// called from inside Reduce. Calling Close from inside an effect with a zero
// close timeout never returns, since Close waits for that effect too.
type Processor[S, A, P, E any] struct {
	id      string
	reducer Reducer[S, A, P, E]
	env     E

	mu     sync.Mutex
	state  S
	closed bool

	subject  *subject.Subject[S]
	registry *registry.Registry
	mailbox  *queue.Queue[delivery[P]]

	ctx    context.Context
	cancel context.CancelFunc
	logCtx context.Context
	endLog func() context.Context

	effects      sync.WaitGroup
	closeOnce    sync.Once
	closeTimeout time.Duration

	logger  *zap.Logger
	metrics metrics.ProcessorMetrics
	tracing bool
}

// New creates a processor holding initial and starts its mailbox.
func New[S, A, P, E any](initial S, reducer Reducer[S, A, P, E], env E, opts ...Option) *Processor[S, A, P, E] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = fmt.Sprintf("processor-%d", processorSeq.Add(1))
	}

	p := &Processor[S, A, P, E]{
		id:           o.id,
		reducer:      reducer,
		env:          env,
		state:        initial,
		closeTimeout: o.closeTimeout,
		logger:       o.logger.With(zap.String("processor_id", o.id)),
		metrics:      o.metrics,
		tracing:      o.tracing,
	}
	p.subject = subject.New(initial, func(n int) { p.metrics.Subscribers(p.id, n) })
	p.registry = registry.New(registry.WithShards(o.shards), registry.WithLogger(p.logger))

	p.logCtx = o.ctx
	if o.tracing {
		p.logCtx, p.endLog = log.WithZapEffectHandler(o.ctx, o.logBufferSize, p.logger)
	}
	p.ctx, p.cancel = context.WithCancel(p.logCtx)
	p.mailbox = queue.New(p.ctx, o.mailboxSize, p.deliver)

	p.logger.Debug("processor started", zap.Int("mailbox_size", o.mailboxSize), zap.Int("registry_shards", o.shards))
	return p
}

// ID returns the diagnostic id of the processor.
func (p *Processor[S, A, P, E]) ID() string {
	return p.id
}

// State returns a shallow copy of the current state.
//
// Slices, maps and pointers in S are shared with the live state and with the
// values already handed to subscribers. Reducers replace such fields instead
// of editing them in place.
func (p *Processor[S, A, P, E]) State() S {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Select reads a projection of the current state under the state lock.
func Select[S, A, P, E, V any](p *Processor[S, A, P, E], fn func(S) V) V {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.state)
}

// Subscribe returns a channel that yields the current state immediately and
// then the state after every reduce, without deduplication or drops.
//
// The channel is closed when ctx is done, when the returned func is called or
// when the processor is closed.
func (p *Processor[S, A, P, E]) Subscribe(ctx context.Context) (<-chan S, func()) {
	return p.subject.Subscribe(ctx)
}

// Subscribers returns the number of live subscriptions.
func (p *Processor[S, A, P, E]) Subscribers() int {
	return p.subject.Len()
}

// Send transforms action and reduces it on the calling goroutine.
// After Close it does nothing.
func (p *Processor[S, A, P, E]) Send(action A) {
	if err := p.TrySend(action); err != nil {
		p.logger.Debug("action ignored", zap.Error(err))
	}
}

// TrySend is Send reporting ErrClosed when the processor has been closed.
func (p *Processor[S, A, P, E]) TrySend(action A) error {
	private := p.reducer.Transform(action)
	if p.tracing {
		p.trace("action transformed", map[string]interface{}{
			"action":  fmt.Sprintf("%T", action),
			"private": fmt.Sprintf("%T", private),
		})
	}
	return p.dispatch(nil, private, metrics.SourceSend)
}

// Cancel cancels every running effect registered under id. Their pending
// outputs are discarded. Unknown ids are ignored.
func (p *Processor[S, A, P, E]) Cancel(id effects.ID) {
	p.registry.CancelAll(id)
}

// Running reports whether an effect is registered under id.
func (p *Processor[S, A, P, E]) Running(id effects.ID) bool {
	return p.registry.Has(id)
}

// Close cancels every running effect, stops the mailbox and closes all
// subscriptions. It waits for effect goroutines to return, at most for the
// configured close timeout. Close is idempotent.
func (p *Processor[S, A, P, E]) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.registry.Close()
		p.cancel()
		p.mailbox.Close()

		if !p.waitEffects() {
			p.logger.Warn("effects still running after close timeout", zap.Duration("timeout", p.closeTimeout))
		}

		p.subject.Close()
		if p.endLog != nil {
			p.endLog()
		}
		p.logger.Debug("processor closed")
	})
}

// dispatch reduces one private action. h is the handle of the effect that
// emitted it, or nil for an action that came through Send.
func (p *Processor[S, A, P, E]) dispatch(h *registry.Handle, action P, source metrics.Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if h != nil && h.Cancelled() {
		p.metrics.DeliveryDropped(p.id)
		return nil
	}

	if p.tracing {
		p.trace("action dispatched", map[string]interface{}{
			"source": string(source),
			"action": action,
		})
	}

	timer := p.metrics.ReduceDuration(source)
	effect := p.reducer.Reduce(&p.state, action, p.env)
	timer.ObserveDuration()
	p.metrics.ActionDispatched(p.id, source)

	p.subject.Publish(p.state)

	if effect != nil {
		p.start(effect)
	}
	return nil
}

// trace hands a debug entry to the log handler without waiting for it. The
// entry is dropped and counted when the handler buffer is full.
func (p *Processor[S, A, P, E]) trace(msg string, fields map[string]interface{}) {
	if p.ctx.Err() != nil {
		return
	}
	if !log.TryEffect(p.logCtx, log.LogDebug, msg, fields) {
		p.metrics.TraceDropped(p.id)
	}
}

// start runs effect on its own goroutine. Called with p.mu held, so it never
// races the WaitGroup wait in Close.
func (p *Processor[S, A, P, E]) start(effect *effects.Effect[P]) {
	id := effect.ID()
	if id == "" {
		id = effects.NewID()
	}
	h := p.registry.Start(p.ctx, id)

	p.metrics.EffectStarted(p.id)
	p.effects.Add(1)
	go p.run(effect, h)
}

func (p *Processor[S, A, P, E]) run(effect *effects.Effect[P], h *registry.Handle) {
	defer p.effects.Done()

	outcome := metrics.OutcomeCompleted
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomePanicked
			p.logger.Error("panic in effect",
				zap.String("effect_id", string(h.ID())),
				zap.Any("panic", r),
			)
		}
		stopped := p.ctx.Err() != nil
		h.Finish()
		if outcome == metrics.OutcomeCompleted && (stopped || h.Cancelled()) {
			outcome = metrics.OutcomeCancelled
		}
		p.metrics.EffectFinished(p.id, outcome)
		p.logger.Debug("effect finished",
			zap.String("effect_id", string(h.ID())),
			zap.String("outcome", string(outcome)),
			zap.Duration("lifetime", h.Lifetime().Duration()),
		)
	}()

	effect.Run(h.Context(), func(action P) bool {
		return p.mailbox.Post(h.Context(), delivery[P]{handle: h, action: action})
	})
}

// deliver is the mailbox consumer.
func (p *Processor[S, A, P, E]) deliver(_ context.Context, d delivery[P]) {
	_ = p.dispatch(d.handle, d.action, metrics.SourceEffect)
}

// waitEffects blocks until every effect goroutine returned or the close
// timeout elapsed. It reports false on timeout.
func (p *Processor[S, A, P, E]) waitEffects() bool {
	waitCh := make(chan struct{})
	go func() {
		p.effects.Wait()
		close(waitCh)
	}()

	if p.closeTimeout <= 0 {
		<-waitCh
		return true
	}

	timer := time.NewTimer(p.closeTimeout)
	defer timer.Stop()
	select {
	case <-waitCh:
		return true
	case <-timer.C:
		return false
	}
}

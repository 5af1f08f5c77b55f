package effects

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ID identifies one logical family of running effects.
type ID string

// NewID returns a fresh, globally unique effect id.
func NewID() ID {
	return ID(uuid.New().String())
}

// ErrEffectConsumed is raised when an effect is run a second time.
// Effects are single use; running one twice is a programming defect.
var ErrEffectConsumed = errors.New("effect already consumed")

// Emit delivers one value to whoever runs the effect.
// It reports false once the receiver stopped accepting values, after which
// the producer should return.
type Emit[T any] func(T) bool

// Effect is a lazy, infallible sequence of values delivered over time.
//
// An Effect does nothing until Run is called, and Run may be called once.
// A nil *Effect means "no effect".
type Effect[T any] struct {
	id       ID
	run      func(context.Context, Emit[T])
	consumed atomic.Bool
}

func newEffect[T any](run func(context.Context, Emit[T])) *Effect[T] {
	return &Effect[T]{run: run}
}

// ID returns the family id assigned with Cancellable, or "".
func (e *Effect[T]) ID() ID {
	return e.id
}

// Cancellable tags the effect with a caller chosen family id so that it can be
// cancelled together with every other effect sharing that id.
func (e *Effect[T]) Cancellable(id ID) *Effect[T] {
	e.id = id
	return e
}

// Run executes the effect, calling emit for every produced value in order.
// It returns when the effect completes or ctx is done.
func (e *Effect[T]) Run(ctx context.Context, emit Emit[T]) {
	if !e.consumed.CompareAndSwap(false, true) {
		panic(fmt.Errorf("%w: id=%q", ErrEffectConsumed, e.id))
	}
	if ctx.Err() != nil {
		return
	}
	e.run(ctx, emit)
}

// Send returns an effect that emits v once and completes.
func Send[T any](v T) *Effect[T] {
	return newEffect(func(_ context.Context, emit Emit[T]) {
		emit(v)
	})
}

// Empty returns an effect that completes without emitting.
func Empty[T any]() *Effect[T] {
	return newEffect(func(context.Context, Emit[T]) {})
}

// Never returns an effect that emits nothing and only ends when cancelled.
func Never[T any]() *Effect[T] {
	return newEffect(func(ctx context.Context, _ Emit[T]) {
		<-ctx.Done()
	})
}

// FromChannel emits every value received from ch until ch is closed.
func FromChannel[T any](ch <-chan T) *Effect[T] {
	return newEffect(func(ctx context.Context, emit Emit[T]) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok || !emit(v) {
					return
				}
			}
		}
	})
}

// Map transforms every value of e with fn.
func Map[T, R any](e *Effect[T], fn func(T) R) *Effect[R] {
	return newEffect(func(ctx context.Context, emit Emit[R]) {
		e.Run(ctx, func(v T) bool {
			return emit(fn(v))
		})
	})
}

// Concat runs the given effects one after another.
// Nil effects are skipped.
func Concat[T any](effects ...*Effect[T]) *Effect[T] {
	return newEffect(func(ctx context.Context, emit Emit[T]) {
		stopped := false
		guarded := func(v T) bool {
			if !emit(v) {
				stopped = true
				return false
			}
			return true
		}
		for _, e := range effects {
			if e == nil {
				continue
			}
			if stopped || ctx.Err() != nil {
				return
			}
			e.Run(ctx, guarded)
		}
	})
}

// Merge runs the given effects concurrently and completes once all of them
// have. Values from one source keep their order; values from different
// sources interleave in no particular order. Nil effects are skipped.
func Merge[T any](effects ...*Effect[T]) *Effect[T] {
	return newEffect(func(ctx context.Context, emit Emit[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var mu sync.Mutex
		serialized := func(v T) bool {
			mu.Lock()
			defer mu.Unlock()
			if ctx.Err() != nil {
				return false
			}
			if !emit(v) {
				cancel()
				return false
			}
			return true
		}

		var wg sync.WaitGroup
		for _, e := range effects {
			if e == nil {
				continue
			}
			wg.Add(1)
			go func(e *Effect[T]) {
				defer wg.Done()
				e.Run(ctx, serialized)
			}(e)
		}
		wg.Wait()
	})
}

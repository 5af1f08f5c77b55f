package effects

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrEffectPanicked wraps a panic recovered inside a fallible effect.
var ErrEffectPanicked = errors.New("effect panicked")

// Fallible is an effect whose source may fail.
//
// It cannot be returned to a processor directly; it must first pass through
// CatchToResult, which turns the failure into an ordinary value.
type Fallible[T any] struct {
	run      func(context.Context, Emit[T]) error
	consumed atomic.Bool
}

func (f *Fallible[T]) runOnce(ctx context.Context, emit Emit[T]) error {
	if !f.consumed.CompareAndSwap(false, true) {
		panic(ErrEffectConsumed)
	}
	return f.run(ctx, emit)
}

// FromFunc adapts any producer into a fallible effect.
// fn should return once ctx is done or emit reports false.
func FromFunc[T any](fn func(ctx context.Context, emit Emit[T]) error) *Fallible[T] {
	return &Fallible[T]{run: fn}
}

// Future adapts a single asynchronous call into a fallible effect that emits
// its value on success.
func Future[T any](fn func(context.Context) (T, error)) *Fallible[T] {
	return FromFunc(func(ctx context.Context, emit Emit[T]) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		emit(v)
		return nil
	})
}

// FromCallback adapts a callback based source.
//
// subscribe is called once with an emit callback and a done callback, both
// safe to call from any goroutine. The returned stop func, if not nil, runs
// when the effect terminates for any reason. Values emitted after done or
// after cancellation are ignored.
func FromCallback[T any](
	subscribe func(emit func(T), done func(error)) (stop func()),
) *Fallible[T] {
	return FromFunc(func(ctx context.Context, emit Emit[T]) error {
		var mu sync.Mutex
		closed := false
		finished := make(chan error, 1)
		var once sync.Once

		complete := func(err error) {
			once.Do(func() {
				finished <- err
			})
		}
		forward := func(v T) {
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			if !emit(v) {
				closed = true
				complete(nil)
			}
		}
		done := func(err error) {
			mu.Lock()
			closed = true
			mu.Unlock()
			complete(err)
		}

		stop := subscribe(forward, done)

		var err error
		select {
		case err = <-finished:
		case <-ctx.Done():
			err = ctx.Err()
		}

		mu.Lock()
		closed = true
		mu.Unlock()
		if stop != nil {
			stop()
		}
		return err
	})
}

// CatchToResult converts a fallible effect into an infallible one.
//
// Every value v becomes wrap(Success(v)). A failure, including a recovered
// panic, becomes one final wrap(Failure(err)). Errors caused by the effect
// being cancelled are not reported, since nobody receives them.
func CatchToResult[T, P any](f *Fallible[T], wrap func(Result[T]) P) *Effect[P] {
	return newEffect(func(ctx context.Context, emit Emit[P]) {
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					if errors.Is(asError(r), ErrEffectConsumed) {
						panic(r)
					}
					err = fmt.Errorf("%w: %v", ErrEffectPanicked, r)
				}
			}()
			return f.runOnce(ctx, func(v T) bool {
				return emit(wrap(Success(v)))
			})
		}()

		if err == nil || ctx.Err() != nil {
			return
		}
		emit(wrap(Failure[T](err)))
	})
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return nil
}

package handlers

import (
	"context"

	effectmodel "github.com/woodycatliu/Processor/effects/internal/model"
	"github.com/woodycatliu/Processor/internal/queue"
)

// NewFireAndForgetHandler starts a handler that runs handleFn for every
// payload on its own goroutine, in submission order.
func NewFireAndForgetHandler[T any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, T),
	teardown func(),
) FireAndForgetHandler[T] {
	ctx, cancelFn := context.WithCancel(ctx)
	q := queue.New(ctx, config.BufferSize, handleFn)
	return FireAndForgetHandler[T]{
		effectScope: newEffectScope(func() {
			q.Close()
			cancelFn()
			teardown()
		}),
		queue: q,
	}
}

type FireAndForgetHandler[T any] struct {
	*effectScope
	queue *queue.Queue[T]
}

// FireAndForgetEffect hands payload to the handler goroutine.
// It reports false if the payload was dropped because ctx ended or the
// handler was already closed.
func (ffh FireAndForgetHandler[T]) FireAndForgetEffect(ctx context.Context, payload T) bool {
	return ffh.queue.Post(ctx, payload)
}

// TryFireAndForgetEffect is FireAndForgetEffect without waiting: the payload
// is dropped when the handler buffer is full.
func (ffh FireAndForgetHandler[T]) TryFireAndForgetEffect(payload T) bool {
	return ffh.queue.TryPost(payload)
}

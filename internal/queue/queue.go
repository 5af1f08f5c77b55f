package queue

import (
	"context"
	"sync"
)

// Queue is a buffered FIFO drained by exactly one goroutine.
//
// Messages are handled in the order they were posted and never concurrently
// with each other, which makes a Queue a sequential execution context.
// Posting never closes the underlying channel, so Post is safe to call from
// any goroutine at any time, including after Close.
type Queue[T any] struct {
	ch      chan T
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New starts the consumer goroutine and returns once it is running.
//
// The consumer exits when ctx is done or Close is called. Messages still
// buffered at that point are discarded.
func New[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) *Queue[T] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	q := &Queue[T]{
		ch:      make(chan T, bufferSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	ready := make(chan struct{})
	go func() {
		defer close(q.stopped)
		close(ready)
		for {
			select {
			case <-q.stop:
				return
			case <-ctx.Done():
				return
			case msg := <-q.ch:
				// stop wins over a message that raced with it
				select {
				case <-q.stop:
					return
				case <-ctx.Done():
					return
				default:
				}
				handleFn(ctx, msg)
			}
		}
	}()
	<-ready

	return q
}

// Post enqueues msg, blocking while the buffer is full.
// It reports false when ctx is done or the queue stopped before msg was accepted.
func (q *Queue[T]) Post(ctx context.Context, msg T) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-q.stopped:
		return false
	case <-q.stop:
		return false
	default:
	}

	select {
	case q.ch <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-q.stop:
		return false
	case <-q.stopped:
		return false
	}
}

// TryPost enqueues msg only if the buffer has room right now.
// It never blocks and reports false when msg was not accepted.
func (q *Queue[T]) TryPost(msg T) bool {
	select {
	case <-q.stopped:
		return false
	case <-q.stop:
		return false
	default:
	}

	select {
	case q.ch <- msg:
		return true
	default:
		return false
	}
}

// Len reports the number of buffered, not yet handled messages.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Close stops the consumer and waits for the in-flight message to finish.
// It must not be called from inside handleFn.
func (q *Queue[T]) Close() {
	q.once.Do(func() {
		close(q.stop)
	})
	<-q.stopped
}

// Done is closed once the consumer goroutine has exited.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.stopped
}

// Package subject broadcasts the latest value of a state to any number of
// subscribers without ever blocking the publisher or dropping a value.
package subject

import (
	"context"
	"sync"
)

// Subject holds a current value and fans every published value out to its
// subscribers.
//
// Each subscriber owns an unbounded FIFO and a forwarding goroutine, so a slow
// reader only grows its own backlog. Publish never blocks.
type Subject[T any] struct {
	mu       sync.Mutex
	value    T
	subs     map[uint64]*subscriber[T]
	nextID   uint64
	closed   bool
	onChange func(int)
}

// New returns a subject holding initial. onChange, if not nil, receives the
// subscriber count every time it changes, under the subject lock.
func New[T any](initial T, onChange func(int)) *Subject[T] {
	if onChange == nil {
		onChange = func(int) {}
	}
	return &Subject[T]{
		value:    initial,
		subs:     make(map[uint64]*subscriber[T]),
		onChange: onChange,
	}
}

// Value returns the most recently published value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish stores v as the current value and queues it for every subscriber,
// including when v equals the previous value.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.value = v
	for _, sub := range s.subs {
		sub.push(v)
	}
}

// Subscribe returns a channel that first yields the current value and then
// every later published value, in order.
//
// The channel is closed when ctx is done, when the returned func is called,
// or when the subject is closed. Subscribing to a closed subject yields the
// last value and then a closed channel.
func (s *Subject[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		out := make(chan T, 1)
		out <- s.value
		close(out)
		return out, func() {}
	}

	id := s.nextID
	s.nextID++
	sub := newSubscriber[T]()
	sub.push(s.value)
	s.subs[id] = sub
	s.onChange(len(s.subs))

	go func() {
		sub.forward(ctx)
		s.remove(id)
	}()

	return sub.out, sub.stop
}

// Len returns the number of live subscribers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close stops every subscriber. Later publishes are ignored.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = make(map[uint64]*subscriber[T])
	s.onChange(0)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return
	}
	delete(s.subs, id)
	s.onChange(len(s.subs))
}

type subscriber[T any] struct {
	mu      sync.Mutex
	backlog []T
	notify  chan struct{}
	out     chan T
	done    chan struct{}
	once    sync.Once
}

func newSubscriber[T any]() *subscriber[T] {
	return &subscriber[T]{
		notify: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}
}

func (sub *subscriber[T]) push(v T) {
	sub.mu.Lock()
	sub.backlog = append(sub.backlog, v)
	sub.mu.Unlock()

	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

func (sub *subscriber[T]) pop() (T, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	var zero T
	if len(sub.backlog) == 0 {
		return zero, false
	}
	v := sub.backlog[0]
	sub.backlog[0] = zero
	sub.backlog = sub.backlog[1:]
	return v, true
}

func (sub *subscriber[T]) stop() {
	sub.once.Do(func() {
		close(sub.done)
	})
}

func (sub *subscriber[T]) forward(ctx context.Context) {
	defer close(sub.out)
	for {
		v, ok := sub.pop()
		if !ok {
			select {
			case <-sub.notify:
				continue
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			}
		}

		select {
		case sub.out <- v:
		case <-sub.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

package subject_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodycatliu/Processor/processor/internal/subject"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for value")
	}
	var zero T
	return zero
}

func expectClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed")
		}
	}
}

func TestSubject_SubscribeYieldsCurrentValueFirst(t *testing.T) {
	s := subject.New("ready", nil)
	s.Publish("running")

	ch, cancel := s.Subscribe(context.Background())
	defer cancel()

	assert.Equal(t, "running", receive(t, ch))
}

func TestSubject_NoDeduplication(t *testing.T) {
	s := subject.New(1, nil)
	ch, cancel := s.Subscribe(context.Background())
	defer cancel()

	s.Publish(1)
	s.Publish(1)
	s.Publish(2)

	assert.Equal(t, []int{1, 1, 1, 2}, []int{receive(t, ch), receive(t, ch), receive(t, ch), receive(t, ch)})
}

func TestSubject_SlowSubscriberLosesNothing(t *testing.T) {
	s := subject.New(0, nil)
	ch, cancel := s.Subscribe(context.Background())
	defer cancel()

	// publish far more than any channel buffer before reading anything
	for i := 1; i <= 1000; i++ {
		s.Publish(i)
	}

	for want := 0; want <= 1000; want++ {
		require.Equal(t, want, receive(t, ch))
	}
	assert.Equal(t, 1000, s.Value())
}

func TestSubject_IndependentSubscribers(t *testing.T) {
	s := subject.New("a", nil)
	first, cancelFirst := s.Subscribe(context.Background())
	defer cancelFirst()

	s.Publish("b")

	second, cancelSecond := s.Subscribe(context.Background())
	defer cancelSecond()

	s.Publish("c")

	assert.Equal(t, "a", receive(t, first))
	assert.Equal(t, "b", receive(t, first))
	assert.Equal(t, "c", receive(t, first))

	assert.Equal(t, "b", receive(t, second))
	assert.Equal(t, "c", receive(t, second))
	assert.Equal(t, 2, s.Len())
}

func TestSubject_CancelClosesChannel(t *testing.T) {
	s := subject.New(0, nil)
	ch, cancel := s.Subscribe(context.Background())
	cancel()
	cancel()

	expectClosed(t, ch)
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubject_ContextEndsSubscription(t *testing.T) {
	s := subject.New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := s.Subscribe(ctx)

	cancel()

	expectClosed(t, ch)
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubject_CloseStopsEveryone(t *testing.T) {
	s := subject.New(0, nil)
	a, _ := s.Subscribe(context.Background())
	b, _ := s.Subscribe(context.Background())

	s.Close()
	s.Publish(99)

	expectClosed(t, a)
	expectClosed(t, b)
	assert.Equal(t, 0, s.Value())

	late, _ := s.Subscribe(context.Background())
	assert.Equal(t, 0, receive(t, late))
	expectClosed(t, late)
}

func TestSubject_ReportsSubscriberCount(t *testing.T) {
	counts := make(chan int, 16)
	s := subject.New(0, func(n int) { counts <- n })

	ctx, cancel := context.WithCancel(context.Background())
	first, _ := s.Subscribe(ctx)
	_, stop := s.Subscribe(context.Background())
	assert.Equal(t, 1, receive(t, counts))
	assert.Equal(t, 2, receive(t, counts))

	// a subscription ended by its context is reported too
	cancel()
	expectClosed(t, first)
	assert.Equal(t, 1, receive(t, counts))

	stop()
	assert.Equal(t, 0, receive(t, counts))

	s.Subscribe(context.Background())
	assert.Equal(t, 1, receive(t, counts))
	s.Close()
	assert.Equal(t, 0, receive(t, counts))
}

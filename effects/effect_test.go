package effects_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodycatliu/Processor/effects"
)

// collect runs e to completion and returns everything it emitted.
func collect[T any](t *testing.T, ctx context.Context, e *effects.Effect[T]) []T {
	t.Helper()
	var mu sync.Mutex
	var got []T
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx, func(v T) bool {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, v)
			return true
		})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for effect to complete")
	}
	mu.Lock()
	defer mu.Unlock()
	return got
}

type outcome struct {
	value int
	err   error
}

func toOutcome(r effects.Result[int]) outcome {
	return outcome{value: r.Value, err: r.Err}
}

func TestSend_EmitsOnceThenCompletes(t *testing.T) {
	got := collect(t, context.Background(), effects.Send(42))
	assert.Equal(t, []int{42}, got)
}

func TestEmpty_CompletesWithoutValues(t *testing.T) {
	got := collect(t, context.Background(), effects.Empty[int]())
	assert.Empty(t, got)
}

func TestNever_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		effects.Never[int]().Run(ctx, func(int) bool { return true })
	}()

	select {
	case <-done:
		t.Fatal("never effect completed on its own")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("never effect ignored cancellation")
	}
}

func TestEffect_IsNotRestartable(t *testing.T) {
	e := effects.Send(1)
	e.Run(context.Background(), func(int) bool { return true })

	assert.PanicsWithError(t, `effect already consumed: id=""`, func() {
		e.Run(context.Background(), func(int) bool { return true })
	})
}

func TestEffect_CancelledContextSkipsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	effects.Send(1).Run(ctx, func(int) bool {
		called = true
		return true
	})
	assert.False(t, called)
}

func TestCancellable_TagsFamilyID(t *testing.T) {
	e := effects.Send("x").Cancellable("sign-in")
	assert.Equal(t, effects.ID("sign-in"), e.ID())
	assert.Equal(t, effects.ID(""), effects.Send("y").ID())
}

func TestNewID_IsUnique(t *testing.T) {
	seen := make(map[effects.ID]struct{})
	for i := 0; i < 1000; i++ {
		id := effects.NewID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestFromChannel_PreservesOrderUntilClose(t *testing.T) {
	ch := make(chan int)
	go func() {
		defer close(ch)
		for i := 1; i <= 5; i++ {
			ch <- i
		}
	}()

	got := collect(t, context.Background(), effects.FromChannel(ch))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestFromChannel_StopsWhenReceiverRefuses(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3

	var got []int
	effects.FromChannel(ch).Run(context.Background(), func(v int) bool {
		got = append(got, v)
		return len(got) < 2
	})
	assert.Equal(t, []int{1, 2}, got)
}

func TestMap_TransformsEveryValue(t *testing.T) {
	e := effects.Map(effects.Send(21), func(v int) string {
		if v*2 == 42 {
			return "answer"
		}
		return "other"
	})
	assert.Equal(t, []string{"answer"}, collect(t, context.Background(), e))
}

func TestConcat_RunsSequentially(t *testing.T) {
	e := effects.Concat(effects.Send(1), nil, effects.Empty[int](), effects.Send(2), effects.Send(3))
	assert.Equal(t, []int{1, 2, 3}, collect(t, context.Background(), e))
}

func TestMerge_DeliversAllValuesKeepingPerSourceOrder(t *testing.T) {
	a := make(chan int)
	b := make(chan int)
	go func() {
		defer close(a)
		for i := 0; i < 50; i++ {
			a <- i
		}
	}()
	go func() {
		defer close(b)
		for i := 100; i < 150; i++ {
			b <- i
		}
	}()

	got := collect(t, context.Background(), effects.Merge(effects.FromChannel(a), nil, effects.FromChannel(b)))
	require.Len(t, got, 100)

	var fromA, fromB []int
	for _, v := range got {
		if v < 100 {
			fromA = append(fromA, v)
		} else {
			fromB = append(fromB, v)
		}
	}
	assert.True(t, sort.IntsAreSorted(fromA))
	assert.True(t, sort.IntsAreSorted(fromB))
}

func TestFuture_SuccessIsWrapped(t *testing.T) {
	e := effects.CatchToResult(effects.Future(func(ctx context.Context) (int, error) {
		return 42, nil
	}), toOutcome)

	assert.Equal(t, []outcome{{value: 42}}, collect(t, context.Background(), e))
}

func TestCatchToResult_FailureBecomesValue(t *testing.T) {
	boom := errors.New("boom")
	e := effects.CatchToResult(effects.Future(func(ctx context.Context) (int, error) {
		return 0, boom
	}), toOutcome)

	got := collect(t, context.Background(), e)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].err, boom)
}

func TestCatchToResult_ValuesThenFailure(t *testing.T) {
	boom := errors.New("stream broke")
	e := effects.CatchToResult(effects.FromFunc(func(ctx context.Context, emit effects.Emit[int]) error {
		emit(1)
		emit(2)
		return boom
	}), toOutcome)

	got := collect(t, context.Background(), e)
	require.Len(t, got, 3)
	assert.Equal(t, outcome{value: 1}, got[0])
	assert.Equal(t, outcome{value: 2}, got[1])
	assert.ErrorIs(t, got[2].err, boom)
}

func TestCatchToResult_PanicBecomesFailure(t *testing.T) {
	e := effects.CatchToResult(effects.Future(func(ctx context.Context) (int, error) {
		panic("kaboom")
	}), toOutcome)

	got := collect(t, context.Background(), e)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].err, effects.ErrEffectPanicked)
	assert.Contains(t, got[0].err.Error(), "kaboom")
}

func TestCatchToResult_CancellationIsNotReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	e := effects.CatchToResult(effects.Future(func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}), toOutcome)

	var got []outcome
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx, func(o outcome) bool {
			got = append(got, o)
			return true
		})
	}()

	<-started
	cancel()
	<-done
	assert.Empty(t, got)
}

func TestFromCallback_ForwardsUntilDone(t *testing.T) {
	stopped := make(chan struct{})
	e := effects.CatchToResult(effects.FromCallback(func(emit func(int), done func(error)) func() {
		go func() {
			emit(1)
			emit(2)
			done(nil)
			emit(3) // ignored after done
		}()
		return func() { close(stopped) }
	}), toOutcome)

	got := collect(t, context.Background(), e)
	assert.Equal(t, []outcome{{value: 1}, {value: 2}}, got)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop was not called on completion")
	}
}

func TestFromCallback_ErrorIsCaught(t *testing.T) {
	boom := errors.New("callback failed")
	e := effects.CatchToResult(effects.FromCallback(func(emit func(int), done func(error)) func() {
		go done(boom)
		return nil
	}), toOutcome)

	got := collect(t, context.Background(), e)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].err, boom)
}

func TestFromCallback_StopRunsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	subscribed := make(chan struct{})
	e := effects.CatchToResult(effects.FromCallback(func(emit func(int), done func(error)) func() {
		close(subscribed)
		return func() { close(stopped) }
	}), toOutcome)

	go e.Run(ctx, func(outcome) bool { return true })
	<-subscribed
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop was not called on cancellation")
	}
}

func TestResult_Helpers(t *testing.T) {
	ok := effects.ResultFrom(7, nil)
	assert.True(t, ok.IsSuccess())
	v, err := ok.Get()
	assert.Equal(t, 7, v)
	assert.NoError(t, err)

	bad := effects.ResultFrom(0, errors.New("nope"))
	assert.False(t, bad.IsSuccess())
	assert.Equal(t, effects.Failure[int](bad.Err), bad)
}

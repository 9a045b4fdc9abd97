package job

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sharada-markets/internal/domain"
)

func TestHookLoadsThenKeepsDataOnError(t *testing.T) {
	t.Parallel()

	sched := NewManualScheduler()
	var calls atomic.Int32
	hook := NewHook("quote", time.Minute, func(ctx context.Context) domain.Result[int] {
		if calls.Add(1) == 1 {
			return domain.OK(42)
		}
		return domain.Failed(0, "backend down")
	}, WithScheduler(sched))

	if s := hook.Snapshot(); s.State != StateIdle || s.Loading {
		t.Fatalf("expected idle snapshot before start, got %+v", s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hook.Start(ctx)

	eventually(t, func() bool { return hook.Snapshot().State == StateReady })
	if s := hook.Snapshot(); s.Data != 42 || s.Kind != domain.KindOK || s.Generation != 1 {
		t.Fatalf("unexpected ready snapshot: %+v", s)
	}

	sched.Tick()
	s := hook.Snapshot()
	if s.State != StateError || s.Err != "backend down" {
		t.Fatalf("expected error state, got %+v", s)
	}
	if s.Data != 42 {
		t.Fatalf("expected last good data to survive an error, got %d", s.Data)
	}
	if s.Loading {
		t.Fatal("loading should clear once a fetch settles")
	}
}

func TestHookErrorBeforeAnyData(t *testing.T) {
	t.Parallel()

	hook := NewHook("pcr", time.Minute, func(ctx context.Context) domain.Result[[]string] {
		return domain.Failed([]string{}, "timeout")
	}, WithScheduler(NewManualScheduler()))

	s := hook.Refetch(context.Background())
	if s.State != StateError || s.Data == nil || len(s.Data) != 0 {
		t.Fatalf("expected empty error payload, got %+v", s)
	}
}

func TestHookFallbackCountsAsData(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	hook := NewHook("gainers", time.Minute, func(ctx context.Context) domain.Result[string] {
		if calls.Add(1) == 1 {
			return domain.Fallback("static", "offline")
		}
		return domain.Failed("", "still offline")
	}, WithScheduler(NewManualScheduler()))

	if s := hook.Refetch(context.Background()); s.State != StateReady || s.Kind != domain.KindFallback {
		t.Fatalf("expected ready fallback, got %+v", s)
	}
	if s := hook.Refetch(context.Background()); s.Data != "static" || s.State != StateError {
		t.Fatalf("expected fallback data kept on error, got %+v", s)
	}
}

func TestHookSharesInFlightFetch(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 4)
	var calls atomic.Int32
	hook := NewHook("news", time.Minute, func(ctx context.Context) domain.Result[int] {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return domain.OK(7)
	}, WithScheduler(NewManualScheduler()))

	var wg sync.WaitGroup
	results := make([]Snapshot[int], 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = hook.Refetch(context.Background())
	}()
	<-started
	eventually(t, func() bool { return hook.Snapshot().Loading })

	for i := 1; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = hook.Refetch(context.Background())
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single fetch, got %d", got)
	}
	for i, r := range results {
		if r.Data != 7 || r.Generation != 1 {
			t.Fatalf("result %d: unexpected snapshot %+v", i, r)
		}
	}
}

func TestHookStopDiscardsInFlightResult(t *testing.T) {
	t.Parallel()

	sched := NewManualScheduler()
	started := make(chan struct{}, 1)
	hook := NewHook("fiidii", time.Minute, func(ctx context.Context) domain.Result[int] {
		started <- struct{}{}
		<-ctx.Done()
		return domain.OK(99)
	}, WithScheduler(sched))

	hook.Start(context.Background())
	<-started
	if sched.Active() != 1 {
		t.Fatalf("expected one scheduled task, got %d", sched.Active())
	}

	hook.Stop()
	hook.Stop()
	if sched.Active() != 0 {
		t.Fatalf("expected timer cancelled on stop, got %d", sched.Active())
	}

	time.Sleep(10 * time.Millisecond)
	if s := hook.Snapshot(); s.State == StateReady || s.Generation != 0 {
		t.Fatalf("result applied after stop: %+v", s)
	}

	sched.Tick()
	if s := hook.Refetch(context.Background()); s.Generation != 0 {
		t.Fatalf("stopped hook fetched again: %+v", s)
	}
}

func TestHookStopsWithParentContext(t *testing.T) {
	t.Parallel()

	sched := NewManualScheduler()
	hook := NewHook("indices", time.Minute, func(ctx context.Context) domain.Result[int] {
		return domain.OK(1)
	}, WithScheduler(sched))

	ctx, cancel := context.WithCancel(context.Background())
	hook.Start(ctx)
	eventually(t, func() bool { return hook.Snapshot().State == StateReady })

	cancel()
	eventually(t, hook.Stopped)
	if sched.Active() != 0 {
		t.Fatalf("expected no scheduled tasks after unmount, got %d", sched.Active())
	}
}

func TestHookSubscribersSeeLoadingThenReady(t *testing.T) {
	t.Parallel()

	hook := NewHook("losers", time.Minute, func(ctx context.Context) domain.Result[string] {
		return domain.OK("done")
	}, WithScheduler(NewManualScheduler()))

	var mu sync.Mutex
	var states []State
	unsubscribe := hook.Subscribe(func(s Snapshot[string]) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	hook.Refetch(context.Background())
	unsubscribe()
	hook.Refetch(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateLoading || states[1] != StateReady {
		t.Fatalf("unexpected state sequence: %v", states)
	}
}

func TestHookRefetchHonoursCallerContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	hook := NewHook("slow", time.Minute, func(ctx context.Context) domain.Result[int] {
		<-release
		return domain.OK(1)
	}, WithScheduler(NewManualScheduler()))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if s := hook.Refetch(ctx); s.State == StateReady {
		t.Fatalf("expected refetch to return before the fetch settled, got %+v", s)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

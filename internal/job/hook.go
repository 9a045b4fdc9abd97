// Package job keeps market data fresh in the background: one polling hook
// per dashboard widget, each refetching on its own period.
package job

import (
	"context"
	"sync"
	"time"

	"sharada-markets/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot is the observable state of a hook at one point in time.
type Snapshot[T any] struct {
	Name       string      `json:"name"`
	State      State       `json:"state"`
	Data       T           `json:"data"`
	Kind       domain.Kind `json:"kind,omitempty"`
	Err        string      `json:"error,omitempty"`
	Loading    bool        `json:"loading"`
	UpdatedAt  time.Time   `json:"updatedAt,omitempty"`
	Generation uint64      `json:"generation"`
}

// FetchFunc loads one value for a hook. It must not panic and reports
// failures through the result kind.
type FetchFunc[T any] func(ctx context.Context) domain.Result[T]

// Hook polls a FetchFunc on a fixed period and on demand. At most one fetch
// is in flight; triggers arriving meanwhile share its result. Nothing is
// applied once the hook is stopped.
type Hook[T any] struct {
	name      string
	fetch     FetchFunc[T]
	interval  time.Duration
	scheduler Scheduler
	tracer    trace.Tracer
	now       func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	snap      Snapshot[T]
	hasData   bool
	issued    uint64
	applied   uint64
	ctx       context.Context
	cancel    context.CancelFunc
	stopTimer func()
	started   bool
	stopped   bool
	nextSub   int
	subs      map[int]func(Snapshot[T])
}

type HookOption func(*hookConfig)

type hookConfig struct {
	scheduler Scheduler
	tracer    trace.Tracer
	now       func() time.Time
}

func WithScheduler(s Scheduler) HookOption {
	return func(c *hookConfig) { c.scheduler = s }
}

func WithTracer(t trace.Tracer) HookOption {
	return func(c *hookConfig) { c.tracer = t }
}

func WithClock(now func() time.Time) HookOption {
	return func(c *hookConfig) { c.now = now }
}

func NewHook[T any](name string, interval time.Duration, fetch FetchFunc[T], opts ...HookOption) *Hook[T] {
	cfg := hookConfig{
		scheduler: TickerScheduler{},
		tracer:    trace.NewNoopTracerProvider().Tracer("job"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hook[T]{
		name:      name,
		fetch:     fetch,
		interval:  interval,
		scheduler: cfg.scheduler,
		tracer:    cfg.tracer,
		now:       cfg.now,
		snap:      Snapshot[T]{Name: name, State: StateIdle},
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[int]func(Snapshot[T])),
	}
}

func (h *Hook[T]) Name() string { return h.name }

func (h *Hook[T]) Interval() time.Duration { return h.interval }

// Start schedules the periodic refresh and kicks off the initial fetch. The
// hook stops itself when parent is done.
func (h *Hook[T]) Start(parent context.Context) {
	h.mu.Lock()
	if h.started || h.stopped {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.stopTimer = h.scheduler.Every(h.interval, func() { h.refresh() })
	h.mu.Unlock()

	context.AfterFunc(parent, h.Stop)
	go h.refresh()
}

// Stop cancels the timer and any in-flight fetch. It is idempotent.
func (h *Hook[T]) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	h.cancel()
	if h.stopTimer != nil {
		h.stopTimer()
	}
}

func (h *Hook[T]) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

func (h *Hook[T]) Snapshot() Snapshot[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

// Refetch triggers a fetch, joining one already in flight, and waits for
// its outcome or for ctx to be done.
func (h *Hook[T]) Refetch(ctx context.Context) Snapshot[T] {
	ch := h.group.DoChan("fetch", func() (any, error) {
		return h.run(), nil
	})
	select {
	case <-ctx.Done():
		return h.Snapshot()
	case r := <-ch:
		return r.Val.(Snapshot[T])
	}
}

// Subscribe registers fn for every applied state change. fn runs on the
// fetching goroutine and must not block.
func (h *Hook[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *Hook[T]) refresh() {
	h.Refetch(context.Background())
}

func (h *Hook[T]) run() Snapshot[T] {
	h.mu.Lock()
	if h.stopped {
		snap := h.snap
		h.mu.Unlock()
		return snap
	}
	h.issued++
	gen := h.issued
	ctx := h.ctx
	h.snap.State = StateLoading
	h.snap.Loading = true
	loading := h.snap
	subs := h.subscribers()
	h.mu.Unlock()
	notify(subs, loading)

	ctx, span := h.tracer.Start(ctx, "hook."+h.name+".fetch")
	res := h.fetch(ctx)
	span.End()

	h.mu.Lock()
	if h.stopped || gen <= h.applied {
		snap := h.snap
		h.mu.Unlock()
		return snap
	}
	h.applied = gen
	h.apply(res, gen)
	snap := h.snap
	subs = h.subscribers()
	h.mu.Unlock()
	notify(subs, snap)
	return snap
}

// apply folds a result into the snapshot. An error keeps the last good data.
func (h *Hook[T]) apply(res domain.Result[T], gen uint64) {
	h.snap.Loading = false
	h.snap.Kind = res.Kind
	h.snap.Err = res.Reason
	h.snap.Generation = gen
	h.snap.UpdatedAt = h.now()
	if res.Kind == domain.KindError {
		h.snap.State = StateError
		if !h.hasData {
			h.snap.Data = res.Value
		}
		return
	}
	h.snap.State = StateReady
	h.snap.Data = res.Value
	h.hasData = true
}

func (h *Hook[T]) subscribers() []func(Snapshot[T]) {
	out := make([]func(Snapshot[T]), 0, len(h.subs))
	for _, fn := range h.subs {
		out = append(out, fn)
	}
	return out
}

func notify[T any](subs []func(Snapshot[T]), snap Snapshot[T]) {
	for _, fn := range subs {
		fn(snap)
	}
}

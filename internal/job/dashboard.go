package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"sharada-markets/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Widget names, used for refetch routing and stream messages.
const (
	WidgetQuote   = "quote"
	WidgetIndices = "indices"
	WidgetGainers = "gainers"
	WidgetLosers  = "losers"
	WidgetFIIDII  = "fiidii"
	WidgetPCR     = "pcr"
	WidgetNews    = "news"
)

var ErrUnknownWidget = errors.New("unknown widget")

// MarketData is the subset of the market service the dashboard polls.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (domain.Result[domain.Quote], error)
	AllIndexQuotes(ctx context.Context) domain.Result[map[string]domain.Quote]
	TopGainers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	TopLosers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover]
	FIIDII(ctx context.Context) domain.Result[domain.FIIDII]
	PutCallRatio(ctx context.Context, limit int) domain.Result[domain.PCRSet]
	MarketNews(ctx context.Context, limit int) domain.Result[[]domain.NewsItem]
}

// Intervals are the refresh periods per widget.
type Intervals struct {
	Quote  time.Duration
	Index  time.Duration
	Movers time.Duration
	FIIDII time.Duration
	PCR    time.Duration
	News   time.Duration
}

// DefaultIntervals are the site's refresh periods. FII/DII refreshes every
// 15 minutes; the old summary card polled every 5.
func DefaultIntervals() Intervals {
	return Intervals{
		Quote:  30 * time.Second,
		Index:  60 * time.Second,
		Movers: 5 * time.Minute,
		FIIDII: 15 * time.Minute,
		PCR:    5 * time.Minute,
		News:   10 * time.Minute,
	}
}

type DashboardConfig struct {
	QuoteSymbol string
	PCRLimit    int
	NewsLimit   int
	Intervals   Intervals
	Scheduler   Scheduler
}

// widget erases a hook's type parameter for name-based access.
type widget interface {
	Name() string
	Interval() time.Duration
	Start(ctx context.Context)
	Stop()
	snapshotAny() any
	refetchAny(ctx context.Context) any
	subscribeAny(fn func(any)) func()
}

func (h *Hook[T]) snapshotAny() any { return h.Snapshot() }

func (h *Hook[T]) refetchAny(ctx context.Context) any { return h.Refetch(ctx) }

func (h *Hook[T]) subscribeAny(fn func(any)) func() {
	return h.Subscribe(func(s Snapshot[T]) { fn(s) })
}

// Dashboard owns one hook per widget.
type Dashboard struct {
	Quote   *Hook[domain.Quote]
	Indices *Hook[map[string]domain.Quote]
	Gainers *Hook[[]domain.RankedMover]
	Losers  *Hook[[]domain.RankedMover]
	FIIDII  *Hook[domain.FIIDII]
	PCR     *Hook[domain.PCRSet]
	News    *Hook[[]domain.NewsItem]

	widgets map[string]widget
}

func NewDashboard(tracer trace.Tracer, data MarketData, cfg DashboardConfig) *Dashboard {
	if cfg.QuoteSymbol == "" {
		cfg.QuoteSymbol = domain.SymbolNifty
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TickerScheduler{}
	}
	iv := fillIntervals(cfg.Intervals)
	opts := []HookOption{WithScheduler(cfg.Scheduler), WithTracer(tracer)}

	d := &Dashboard{
		Quote: NewHook(WidgetQuote, iv.Quote, func(ctx context.Context) domain.Result[domain.Quote] {
			res, err := data.Quote(ctx, cfg.QuoteSymbol)
			if err != nil {
				return domain.Failed(domain.Quote{Symbol: cfg.QuoteSymbol, Status: domain.QuoteError}, err.Error())
			}
			return res
		}, opts...),
		Indices: NewHook(WidgetIndices, iv.Index, data.AllIndexQuotes, opts...),
		Gainers: NewHook(WidgetGainers, iv.Movers, func(ctx context.Context) domain.Result[[]domain.RankedMover] {
			return data.TopGainers(ctx, domain.DefaultExchange)
		}, opts...),
		Losers: NewHook(WidgetLosers, iv.Movers, func(ctx context.Context) domain.Result[[]domain.RankedMover] {
			return data.TopLosers(ctx, domain.DefaultExchange)
		}, opts...),
		FIIDII: NewHook(WidgetFIIDII, iv.FIIDII, data.FIIDII, opts...),
		PCR: NewHook(WidgetPCR, iv.PCR, func(ctx context.Context) domain.Result[domain.PCRSet] {
			return data.PutCallRatio(ctx, cfg.PCRLimit)
		}, opts...),
		News: NewHook(WidgetNews, iv.News, func(ctx context.Context) domain.Result[[]domain.NewsItem] {
			return data.MarketNews(ctx, cfg.NewsLimit)
		}, opts...),
	}
	d.widgets = make(map[string]widget)
	for _, w := range []widget{d.Quote, d.Indices, d.Gainers, d.Losers, d.FIIDII, d.PCR, d.News} {
		d.widgets[w.Name()] = w
	}
	return d
}

func fillIntervals(iv Intervals) Intervals {
	def := DefaultIntervals()
	pick := func(v, d time.Duration) time.Duration {
		if v <= 0 {
			return d
		}
		return v
	}
	return Intervals{
		Quote:  pick(iv.Quote, def.Quote),
		Index:  pick(iv.Index, def.Index),
		Movers: pick(iv.Movers, def.Movers),
		FIIDII: pick(iv.FIIDII, def.FIIDII),
		PCR:    pick(iv.PCR, def.PCR),
		News:   pick(iv.News, def.News),
	}
}

// Start mounts every widget and blocks until ctx is cancelled.
func (d *Dashboard) Start(ctx context.Context) {
	log.Println("Dashboard hooks starting...")
	for _, name := range d.Names() {
		w := d.widgets[name]
		log.Printf("hook %s polling every %v", name, w.Interval())
		w.Start(ctx)
	}
	<-ctx.Done()
	d.Stop()
	log.Println("Dashboard hooks stopped")
}

func (d *Dashboard) Stop() {
	for _, w := range d.widgets {
		w.Stop()
	}
}

// Names lists the widgets in a stable order.
func (d *Dashboard) Names() []string {
	names := make([]string, 0, len(d.widgets))
	for name := range d.widgets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the current Snapshot of the named widget.
func (d *Dashboard) Snapshot(name string) (any, error) {
	w, ok := d.widgets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWidget, name)
	}
	return w.snapshotAny(), nil
}

// Snapshots returns every widget's current snapshot keyed by name.
func (d *Dashboard) Snapshots() map[string]any {
	out := make(map[string]any, len(d.widgets))
	for name, w := range d.widgets {
		out[name] = w.snapshotAny()
	}
	return out
}

// Refetch forces the named widget to refresh and returns its new snapshot.
func (d *Dashboard) Refetch(ctx context.Context, name string) (any, error) {
	w, ok := d.widgets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWidget, name)
	}
	return w.refetchAny(ctx), nil
}

// Subscribe calls fn with the widget name and snapshot on every change.
func (d *Dashboard) Subscribe(fn func(name string, snapshot any)) (unsubscribe func()) {
	cancels := make([]func(), 0, len(d.widgets))
	for name, w := range d.widgets {
		name := name
		cancels = append(cancels, w.subscribeAny(func(s any) { fn(name, s) }))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

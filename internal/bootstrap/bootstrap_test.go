package bootstrap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"sharada-markets/internal/cache"
	"sharada-markets/internal/config"
	"sharada-markets/internal/domain"
	"sharada-markets/internal/job"
	"sharada-markets/internal/remote"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

func TestOpenCacheFallsBackToMemory(t *testing.T) {
	orig := initRedis
	defer func() { initRedis = orig }()
	initRedis = func(ctx context.Context, addr string) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}

	c, closeFn := OpenCache(context.Background(), "localhost:6379")
	defer closeFn()

	c.Set(context.Background(), "k", map[string]int{"v": 1})
	var got map[string]int
	if !c.Get(context.Background(), "k", time.Minute, &got) || got["v"] != 1 {
		t.Fatalf("memory fallback should store values, got %v", got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewMarketServiceUsesConfiguredEndpoints(t *testing.T) {
	cfg := &config.Config{
		BackendURL:     "http://backend.test",
		FinnhubBaseURL: "http://finnhub.test/api/v1",
		FinnhubAPIKey:  "fh",
	}
	tracer := trace.NewNoopTracerProvider().Tracer("test")

	var seen *url.URL
	client := remote.NewClient(tracer, remote.ResolveBaseURL(cfg.BackendURL, ""),
		remote.WithHTTPClient(&http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			seen = r.URL
			return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{"c":100,"d":1,"dp":1,"pc":99}`)), Header: http.Header{}}, nil
		})}),
		remote.WithDecorators(remote.ProviderDecorators(remote.Keys{Finnhub: cfg.FinnhubAPIKey})...),
	)
	svc := NewMarketService(cfg, tracer, client, cache.New(cache.NewMemoryBackend()))

	res, err := svc.Quote(context.Background(), "tcs")
	if err != nil || res.Kind != domain.KindOK {
		t.Fatalf("unexpected quote result: %+v %v", res, err)
	}
	if seen.Host != "finnhub.test" || seen.Query().Get("token") != "fh" || seen.Query().Get("symbol") != "TCS.NSE" {
		t.Fatalf("unexpected upstream request: %s", seen)
	}
}

type dashboardData struct {
	pcrLimit int
}

func (d *dashboardData) Quote(ctx context.Context, symbol string) (domain.Result[domain.Quote], error) {
	return domain.OK(domain.Quote{Symbol: symbol, Status: domain.QuoteOK}), nil
}

func (d *dashboardData) AllIndexQuotes(context.Context) domain.Result[map[string]domain.Quote] {
	return domain.OK(map[string]domain.Quote{})
}

func (d *dashboardData) TopGainers(context.Context, string) domain.Result[[]domain.RankedMover] {
	return domain.OK([]domain.RankedMover{})
}

func (d *dashboardData) TopLosers(context.Context, string) domain.Result[[]domain.RankedMover] {
	return domain.OK([]domain.RankedMover{})
}

func (d *dashboardData) FIIDII(context.Context) domain.Result[domain.FIIDII] {
	return domain.OK(domain.FIIDII{})
}

func (d *dashboardData) PutCallRatio(_ context.Context, limit int) domain.Result[domain.PCRSet] {
	d.pcrLimit = limit
	return domain.OK(domain.PCRSet{Exchange: domain.DefaultExchange, Entries: []domain.PCREntry{}})
}

func (d *dashboardData) MarketNews(context.Context, int) domain.Result[[]domain.NewsItem] {
	return domain.OK([]domain.NewsItem{})
}

func TestNewDashboardUsesConfiguredPeriods(t *testing.T) {
	cfg := &config.Config{PollQuoteSecs: 10, PollIndexSecs: 20, PollMoversSecs: 30, PollFIIDIISecs: 40, PollPCRSecs: 50, PollNewsSecs: 60}
	data := &dashboardData{}
	dash := NewDashboard(cfg, trace.NewNoopTracerProvider().Tracer("test"), data, job.NewManualScheduler())

	if dash.Quote.Interval() != 10*time.Second || dash.FIIDII.Interval() != 40*time.Second || dash.News.Interval() != time.Minute {
		t.Fatalf("unexpected periods: quote=%v fiidii=%v news=%v", dash.Quote.Interval(), dash.FIIDII.Interval(), dash.News.Interval())
	}

	if _, err := dash.Refetch(context.Background(), job.WidgetPCR); err != nil {
		t.Fatalf("refetch pcr: %v", err)
	}
	if data.pcrLimit != domain.PCRFullSetLimit {
		t.Fatalf("expected the pcr widget to fetch the full set, got limit %d", data.pcrLimit)
	}
}

func TestNewRemoteClientResolvesBackend(t *testing.T) {
	c := NewRemoteClient(&config.Config{SiteOrigin: "https://sharada.example"}, trace.NewNoopTracerProvider().Tracer("test"))
	if c.BaseURL() != "https://sharada.example/api" {
		t.Fatalf("unexpected base url: %s", c.BaseURL())
	}
}

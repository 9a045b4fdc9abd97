// Package bootstrap assembles the market data layer shared by every
// entrypoint.
package bootstrap

import (
	"context"
	"log"

	"sharada-markets/internal/cache"
	"sharada-markets/internal/config"
	"sharada-markets/internal/domain"
	"sharada-markets/internal/job"
	"sharada-markets/internal/remote"
	"sharada-markets/internal/service"

	"go.opentelemetry.io/otel/trace"
)

// FinnhubPerMinute is the free-tier request budget of the quote provider.
const FinnhubPerMinute = 60

var initRedis = cache.InitRedis

// OpenCache connects the cache to Redis, or to process memory when Redis is
// unreachable. The returned func releases the connection.
func OpenCache(ctx context.Context, redisURL string) (*cache.Cache, func()) {
	client, err := initRedis(ctx, redisURL)
	if err != nil {
		log.Printf("Warning: %v, using in-memory cache", err)
		return cache.New(cache.NewMemoryBackend()), func() {}
	}
	return cache.New(cache.NewRedisBackend(client)), func() {
		if err := client.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}
}

// NewRemoteClient builds the HTTP client with provider credentials attached
// and the quote provider throttled.
func NewRemoteClient(cfg *config.Config, tracer trace.Tracer) *remote.Client {
	base := remote.ResolveBaseURL(cfg.BackendURL, cfg.SiteOrigin)
	log.Printf("market backend at %s", base)
	keys := remote.Keys{Finnhub: cfg.FinnhubAPIKey, NewsAPI: cfg.NewsAPIKey, GNews: cfg.GNewsAPIKey}
	return remote.NewClient(tracer, base,
		remote.WithDecorators(remote.ProviderDecorators(keys)...),
		remote.WithRateLimit("finnhub", remote.PerMinute(FinnhubPerMinute)),
	)
}

func NewMarketService(cfg *config.Config, tracer trace.Tracer, fetcher service.Fetcher, c *cache.Cache) *service.MarketService {
	return service.NewMarketService(tracer, fetcher, c, service.Endpoints{
		Quote: cfg.FinnhubBaseURL,
		NSE:   cfg.NSEDataURL,
		GNews: cfg.GNewsBaseURL,
		RSS:   cfg.NewsRSSURL,
	})
}

// NewDashboard creates the polling hooks with configured periods. A nil
// scheduler uses real tickers.
func NewDashboard(cfg *config.Config, tracer trace.Tracer, data job.MarketData, sched job.Scheduler) *job.Dashboard {
	return job.NewDashboard(tracer, data, job.DashboardConfig{
		PCRLimit:  domain.PCRFullSetLimit,
		NewsLimit: service.DefaultNewsLimit,
		Scheduler: sched,
		Intervals: job.Intervals{
			Quote:  config.PollInterval(cfg.PollQuoteSecs),
			Index:  config.PollInterval(cfg.PollIndexSecs),
			Movers: config.PollInterval(cfg.PollMoversSecs),
			FIIDII: config.PollInterval(cfg.PollFIIDIISecs),
			PCR:    config.PollInterval(cfg.PollPCRSecs),
			News:   config.PollInterval(cfg.PollNewsSecs),
		},
	})
}

package service

import (
	"context"
	"log"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sharada-markets/internal/cache"
	"sharada-markets/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultQuoteURL = "https://finnhub.io/api/v1"
	DefaultGNewsURL = "https://gnews.io/api/v4"

	DefaultPCRLimit  = 100
	DefaultNewsLimit = 10
)

// Fetcher performs a GET against an absolute URL or a path relative to the
// market backend and decodes the JSON body into dst.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values, dst any) error
}

// Endpoints locates the upstreams that are not the market backend itself.
// An empty NSE base sends exchange-data requests to the backend; an empty
// RSS feed disables that news source.
type Endpoints struct {
	Quote string
	NSE   string
	GNews string
	RSS   string
}

// MarketService is the single entry point for market data. Accessors never
// return upstream failures: they degrade to a tagged fallback or empty
// result instead. The only error they return is a *domain.ValidationError
// for bad caller input, raised before any request is made.
type MarketService struct {
	tracer    trace.Tracer
	fetcher   Fetcher
	cache     *cache.Cache
	endpoints Endpoints
	now       func() time.Time
}

func NewMarketService(tracer trace.Tracer, fetcher Fetcher, c *cache.Cache, endpoints Endpoints) *MarketService {
	if endpoints.Quote == "" {
		endpoints.Quote = DefaultQuoteURL
	}
	if endpoints.GNews == "" {
		endpoints.GNews = DefaultGNewsURL
	}
	endpoints.Quote = strings.TrimRight(endpoints.Quote, "/")
	endpoints.NSE = strings.TrimRight(endpoints.NSE, "/")
	endpoints.GNews = strings.TrimRight(endpoints.GNews, "/")
	endpoints.RSS = strings.TrimSpace(endpoints.RSS)
	return &MarketService{
		tracer:    tracer,
		fetcher:   fetcher,
		cache:     c,
		endpoints: endpoints,
		now:       time.Now,
	}
}

func (s *MarketService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func requireSymbol(symbol string) (string, error) {
	sym := normalizeSymbol(symbol)
	if sym == "" {
		return "", domain.NewValidationError("symbol", "please enter a stock symbol")
	}
	return sym, nil
}

// Quote returns the latest quote for an NSE symbol from the quote provider,
// served from cache for five minutes.
func (s *MarketService) Quote(ctx context.Context, symbol string) (domain.Result[domain.Quote], error) {
	ctx, span := s.tracer.Start(ctx, "market-service.quote")
	defer span.End()

	sym, err := requireSymbol(symbol)
	if err != nil {
		return domain.Result[domain.Quote]{}, err
	}
	span.SetAttributes(attribute.String("symbol", sym))

	key := cache.MarketDataKey(sym)
	var cached domain.Quote
	if s.cache.Get(ctx, key, cache.MarketDataTTL, &cached) {
		return domain.OK(cached), nil
	}

	var raw record
	if err := s.fetcher.GetJSON(ctx, s.endpoints.Quote+"/quote", url.Values{"symbol": {sym + ".NSE"}}, &raw); err != nil {
		log.Printf("quote fetch for %s failed, serving fallback: %v", sym, err)
		return domain.Fallback(fallbackQuote(sym), err.Error()), nil
	}
	q := normalizeQuote(raw, sym)
	if q.Exchange == "" {
		q.Exchange = domain.DefaultExchange
	}
	if q.Status != domain.QuoteOK {
		log.Printf("quote for %s unusable, serving fallback: %s", sym, q.Error)
		return domain.Fallback(fallbackQuote(sym), q.Error), nil
	}
	s.cache.Set(ctx, key, q)
	return domain.OK(q), nil
}

// IndexQuote returns one index from the backend. It is not cached.
func (s *MarketService) IndexQuote(ctx context.Context, symbol string) (domain.Result[domain.Quote], error) {
	ctx, span := s.tracer.Start(ctx, "market-service.index-quote")
	defer span.End()

	sym, err := requireSymbol(symbol)
	if err != nil {
		return domain.Result[domain.Quote]{}, err
	}

	var raw record
	if err := s.fetcher.GetJSON(ctx, "/index-quote/"+url.PathEscape(sym), nil, &raw); err != nil {
		log.Printf("index quote fetch for %s failed: %v", sym, err)
		return domain.Failed(domain.Quote{Symbol: sym, Status: domain.QuoteError, Error: err.Error()}, err.Error()), nil
	}
	q := normalizeQuote(raw, sym)
	if q.Status != domain.QuoteOK {
		return domain.Failed(q, q.Error), nil
	}
	return domain.OK(q), nil
}

// AllIndexQuotes returns every index the backend tracks, keyed by symbol.
// Entries the backend marks as failed are kept with Status error.
func (s *MarketService) AllIndexQuotes(ctx context.Context) domain.Result[map[string]domain.Quote] {
	ctx, span := s.tracer.Start(ctx, "market-service.all-index-quotes")
	defer span.End()

	var raw record
	if err := s.fetcher.GetJSON(ctx, "/index-quotes", nil, &raw); err != nil {
		log.Printf("index quotes fetch failed: %v", err)
		return domain.Failed(map[string]domain.Quote{}, err.Error())
	}
	if data := raw.sub("data"); data != nil {
		raw = data
	}
	out := make(map[string]domain.Quote, len(raw))
	for key, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		q := normalizeQuote(record(m), strings.ToUpper(key))
		out[strings.ToUpper(key)] = q
	}
	return domain.OK(out)
}

// TopGainers returns the exchange's top gainers ranked by changePercent.
func (s *MarketService) TopGainers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover] {
	ctx, span := s.tracer.Start(ctx, "market-service.top-gainers")
	defer span.End()
	return s.movers(ctx, "/top-gainers", "gainers", exchange, domain.RankGainers, fallbackGainers)
}

// TopLosers returns the exchange's top losers ranked by changePercent.
func (s *MarketService) TopLosers(ctx context.Context, exchange string) domain.Result[[]domain.RankedMover] {
	ctx, span := s.tracer.Start(ctx, "market-service.top-losers")
	defer span.End()
	return s.movers(ctx, "/top-losers", "losers", exchange, domain.RankLosers, fallbackLosers)
}

func (s *MarketService) movers(
	ctx context.Context,
	path, field, exchange string,
	rank func([]domain.RankedMover) []domain.RankedMover,
	fallback func() []domain.RankedMover,
) domain.Result[[]domain.RankedMover] {
	exchange = normalizeSymbol(exchange)
	if exchange == "" {
		exchange = domain.DefaultExchange
	}

	var raw record
	if err := s.fetcher.GetJSON(ctx, path, url.Values{"exchange": {exchange}}, &raw); err != nil {
		log.Printf("%s fetch failed, serving fallback: %v", field, err)
		return domain.Fallback(rank(fallback()), err.Error())
	}

	items := raw.list(field)
	movers := make([]domain.RankedMover, 0, len(items))
	for i, item := range items {
		m, ok := normalizeMover(item)
		if !ok {
			log.Printf("%s entry %d missing symbol, dropped", field, i)
			continue
		}
		movers = append(movers, m)
	}
	return domain.OK(rank(movers))
}

// PutCallRatio returns up to limit PCR entries for NSE. Aggregate stats
// describe the whole upstream set, whatever the limit.
func (s *MarketService) PutCallRatio(ctx context.Context, limit int) domain.Result[domain.PCRSet] {
	ctx, span := s.tracer.Start(ctx, "market-service.put-call-ratio")
	defer span.End()

	if limit <= 0 {
		limit = DefaultPCRLimit
	}
	empty := domain.PCRSet{Exchange: domain.DefaultExchange, Entries: []domain.PCREntry{}}

	var raw record
	params := url.Values{"exchange": {domain.DefaultExchange}, "limit": {strconv.Itoa(limit)}}
	if err := s.fetcher.GetJSON(ctx, "/putcallratio", params, &raw); err != nil {
		log.Printf("put/call ratio fetch failed: %v", err)
		return domain.Failed(empty, err.Error())
	}
	if status := raw.str("status"); status != "" && !strings.EqualFold(status, "ok") {
		reason := raw.str("error", "message")
		if reason == "" {
			reason = "upstream status " + status
		}
		return domain.Failed(empty, reason)
	}

	set := domain.PCRSet{Exchange: raw.str("exchange"), Entries: []domain.PCREntry{}}
	if set.Exchange == "" {
		set.Exchange = domain.DefaultExchange
	}
	for _, item := range raw.list("data") {
		pcr, ok := item.num("pcr")
		if !ok || pcr < 0 || math.IsNaN(pcr) || math.IsInf(pcr, 0) {
			continue
		}
		e := domain.PCREntry{
			Symbol:        item.str("symbol"),
			TradingSymbol: item.str("tradingSymbol"),
			PCR:           pcr,
		}
		if e.Symbol == "" {
			e.Symbol = e.TradingSymbol
		}
		if e.Symbol == "" {
			continue
		}
		set.Entries = append(set.Entries, e)
	}
	set.Stats = pcrStats(raw, set.Entries)
	return domain.OK(set)
}

// pcrStats prefers the backend's aggregates, which cover symbols beyond the
// returned limit, and computes them locally otherwise.
func pcrStats(raw record, entries []domain.PCREntry) domain.PCRStats {
	avg, hasAvg := raw.num("avg_pcr")
	lo, hasMin := raw.num("min_pcr")
	hi, hasMax := raw.num("max_pcr")
	if !hasAvg || !hasMin || !hasMax {
		return domain.ComputePCRStats(entries)
	}
	stats := domain.PCRStats{Avg: avg, Min: lo, Max: hi, TotalSymbols: len(entries)}
	if total, ok := raw.num("total_symbols"); ok {
		stats.TotalSymbols = int(total)
	}
	return stats
}

package service

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"time"

	"sharada-markets/internal/cache"
	"sharada-markets/internal/domain"
)

const gnewsQuery = "Indian stock market NSE BSE"

// MarketNews returns bilingual market headlines. The backend's curated feed
// is tried first, then GNews, then the configured RSS feed. Only live
// results are cached; the static fallback never is.
func (s *MarketService) MarketNews(ctx context.Context, limit int) domain.Result[[]domain.NewsItem] {
	ctx, span := s.tracer.Start(ctx, "market-service.market-news")
	defer span.End()

	if limit <= 0 {
		limit = DefaultNewsLimit
	}

	var cached []domain.NewsItem
	if s.cache.Get(ctx, cache.NewsKey, cache.NewsTTL, &cached) && len(cached) > 0 {
		return domain.OK(limitNews(cached, limit))
	}

	now := s.now()
	items, err := s.backendNews(ctx, limit, now)
	if err != nil {
		log.Printf("backend news unavailable, trying gnews: %v", err)
	}
	if len(items) == 0 {
		items, err = s.gnews(ctx, limit)
		if err != nil {
			log.Printf("gnews unavailable, trying rss: %v", err)
		}
	}
	if len(items) == 0 {
		var rssErr error
		items, rssErr = s.rssNews(ctx, limit)
		if rssErr != nil {
			log.Printf("rss news unavailable: %v", rssErr)
			err = rssErr
		}
	}
	if len(items) == 0 {
		reason := "no headlines from any news source"
		if err != nil {
			reason = err.Error()
		}
		log.Printf("news fetch failed, serving fallback: %s", reason)
		return domain.Fallback(fallbackNews(now), reason)
	}

	s.cache.Set(ctx, cache.NewsKey, items)
	return domain.OK(items)
}

func (s *MarketService) backendNews(ctx context.Context, limit int, now time.Time) ([]domain.NewsItem, error) {
	var raw record
	if err := s.fetcher.GetJSON(ctx, "/marathi-news", url.Values{"limit": {strconv.Itoa(limit)}}, &raw); err != nil {
		return nil, err
	}
	articles := raw.list("articles")
	items := make([]domain.NewsItem, 0, len(articles))
	for i, a := range articles {
		item := domain.NewsItem{
			ID:          i + 1,
			TitleEn:     a.str("english_title"),
			TitleMr:     a.str("marathi_title"),
			Source:      firstNonEmpty(a.str("source"), "Unknown"),
			URL:         firstNonEmpty(a.str("url"), "#"),
			Category:    domain.NewsMarketUpdate,
			PublishedAt: parsePublished(a.str("publishedAt", "published_at"), now),
		}
		items = append(items, item)
	}
	return limitNews(items, limit), nil
}

func (s *MarketService) gnews(ctx context.Context, limit int) ([]domain.NewsItem, error) {
	params := url.Values{
		"q":       {gnewsQuery},
		"lang":    {"en"},
		"country": {"in"},
		"max":     {strconv.Itoa(limit)},
		"sortby":  {"publishedAt"},
	}
	var raw record
	if err := s.fetcher.GetJSON(ctx, s.endpoints.GNews+"/search", params, &raw); err != nil {
		return nil, err
	}
	now := s.now()
	articles := raw.list("articles")
	items := make([]domain.NewsItem, 0, len(articles))
	for i, a := range articles {
		source := ""
		if src := a.sub("source"); src != nil {
			source = src.str("name")
		}
		items = append(items, domain.NewsItem{
			ID:          i + 1,
			TitleEn:     a.str("title"),
			Source:      source,
			URL:         a.str("url"),
			Category:    domain.NewsMarketUpdate,
			PublishedAt: parsePublished(a.str("publishedAt"), now),
		})
	}
	return limitNews(items, limit), nil
}

func parsePublished(v string, fallback time.Time) time.Time {
	if v == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	return fallback
}

func limitNews(items []domain.NewsItem, limit int) []domain.NewsItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

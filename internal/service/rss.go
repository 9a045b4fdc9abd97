package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"sharada-markets/internal/domain"
)

const rssAccept = "application/rss+xml, application/xml, text/xml"

// FeedFetcher returns a raw response body. Fetchers that also implement it
// enable the RSS news source.
type FeedFetcher interface {
	GetBytes(ctx context.Context, rawURL string, params url.Values, accept string) ([]byte, error)
}

type rssDocument struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			PubDate string `xml:"pubDate"`
			Source  string `xml:"source"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (s *MarketService) rssNews(ctx context.Context, limit int) ([]domain.NewsItem, error) {
	if s.endpoints.RSS == "" {
		return nil, nil
	}
	feeds, ok := s.fetcher.(FeedFetcher)
	if !ok {
		return nil, nil
	}

	body, err := feeds.GetBytes(ctx, s.endpoints.RSS, nil, rssAccept)
	if err != nil {
		return nil, err
	}
	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode rss payload: %w", err)
	}

	now := s.now()
	channel := sanitizeText(doc.Channel.Title, 120)
	items := make([]domain.NewsItem, 0, min(limit, len(doc.Channel.Items)))
	for _, row := range doc.Channel.Items {
		if len(items) >= limit {
			break
		}
		title := sanitizeText(row.Title, 300)
		if title == "" {
			continue
		}
		published := parseRSSDate(row.PubDate)
		if published.IsZero() {
			published = now
		}
		items = append(items, domain.NewsItem{
			ID:          len(items) + 1,
			TitleEn:     title,
			Source:      firstNonEmpty(sanitizeText(row.Source, 120), channel, "RSS"),
			URL:         firstNonEmpty(strings.TrimSpace(row.Link), "#"),
			Category:    domain.NewsMarketUpdate,
			PublishedAt: published,
		})
	}
	return items, nil
}

func parseRSSDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// sanitizeText collapses whitespace and caps the rune count.
func sanitizeText(v string, limit int) string {
	v = strings.Join(strings.Fields(v), " ")
	if utf8.RuneCountInString(v) <= limit {
		return v
	}
	return string([]rune(v)[:limit])
}

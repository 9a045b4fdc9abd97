package service

import (
	"time"

	"sharada-markets/internal/domain"
)

// Static snapshots served when an upstream is unreachable.

func fallbackQuote(symbol string) domain.Quote {
	return domain.Quote{
		Symbol:        symbol,
		Exchange:      domain.DefaultExchange,
		Price:         19500,
		Open:          19450,
		High:          19600,
		Low:           19400,
		PreviousClose: 19350,
		Change:        150,
		ChangePercent: 0.78,
		Status:        domain.QuoteOK,
	}
}

func fallbackGainers() []domain.RankedMover {
	return []domain.RankedMover{
		{Symbol: "RELIANCE", Price: 2450, Change: 45, ChangePercent: 1.87},
		{Symbol: "TCS", Price: 3850, Change: 38, ChangePercent: 1.00},
	}
}

func fallbackLosers() []domain.RankedMover {
	return []domain.RankedMover{
		{Symbol: "ADANIPORTS", Price: 850, Change: -25, ChangePercent: -2.86},
		{Symbol: "BAJFINANCE", Price: 7200, Change: -180, ChangePercent: -2.44},
	}
}

func fallbackFIIDII(now time.Time) domain.FIIDII {
	date := now.Format("02-Jan-2006")
	return domain.FIIDII{
		FII:  domain.InstitutionalFlow{Buy: 5000, Sell: 2500, Date: date, Category: "FII/FPI"},
		DII:  domain.InstitutionalFlow{Buy: 3000, Sell: 1800, Date: date, Category: "DII"},
		Date: date,
	}
}

func fallbackNews(now time.Time) []domain.NewsItem {
	return []domain.NewsItem{
		{
			ID:          1,
			TitleEn:     "Nifty 50 crosses 19,500 mark as banking stocks rally",
			TitleMr:     "बँकिंग शेअर्सच्या वाढीमुळे निफ्टी 19,500 च्या वर",
			Source:      "Economic Times",
			URL:         "#",
			Category:    domain.NewsMarketUpdate,
			PublishedAt: now,
		},
		{
			ID:          2,
			TitleEn:     "RBI keeps repo rate unchanged at 6.5%",
			TitleMr:     "RBI ने रेपो दर 6.5% वर कायम ठेवला",
			Source:      "Business Standard",
			URL:         "#",
			Category:    domain.NewsPolicy,
			PublishedAt: now.Add(-time.Hour),
		},
	}
}

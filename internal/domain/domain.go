package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

const DefaultExchange = "NSE"

// Index symbols served by the backend index endpoints.
const (
	SymbolNifty     = "NIFTY"
	SymbolSensex    = "SENSEX"
	SymbolBankNifty = "BANKNIFTY"
)

// SupportedIndices lists the indices shown on the hero ticker, in display order.
var SupportedIndices = []string{SymbolNifty, SymbolSensex, SymbolBankNifty}

type QuoteStatus string

const (
	QuoteOK    QuoteStatus = "ok"
	QuoteError QuoteStatus = "error"
)

// Quote is the latest traded state of an index or equity.
type Quote struct {
	Symbol        string      `json:"symbol"`
	Exchange      string      `json:"exchange,omitempty"`
	Price         float64     `json:"price"`
	Open          float64     `json:"open,omitempty"`
	High          float64     `json:"high,omitempty"`
	Low           float64     `json:"low,omitempty"`
	PreviousClose float64     `json:"previousClose,omitempty"`
	Change        float64     `json:"change"`
	ChangePercent float64     `json:"changePercent"`
	Status        QuoteStatus `json:"status"`
	Error         string      `json:"error,omitempty"`
}

// ChangePercentOf returns change as a percentage of the previous close
// implied by price - change. Zero when that close is zero.
func ChangePercentOf(price, change float64) float64 {
	prev := price - change
	if prev == 0 {
		return 0
	}
	return change / prev * 100
}

// Finite reports whether every numeric field of q is a finite number.
func (q Quote) Finite() bool {
	for _, v := range []float64{q.Price, q.Open, q.High, q.Low, q.PreviousClose, q.Change, q.ChangePercent} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RankedMover is one entry of a top gainers or top losers list.
type RankedMover struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// RankGainers returns a copy of movers ordered by changePercent descending.
// Ties are broken by symbol so the order is deterministic.
func RankGainers(movers []RankedMover) []RankedMover {
	return rankMovers(movers, func(a, b float64) bool { return a > b })
}

// RankLosers returns a copy of movers ordered by changePercent ascending.
func RankLosers(movers []RankedMover) []RankedMover {
	return rankMovers(movers, func(a, b float64) bool { return a < b })
}

func rankMovers(movers []RankedMover, before func(a, b float64) bool) []RankedMover {
	out := append([]RankedMover(nil), movers...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChangePercent != out[j].ChangePercent {
			return before(out[i].ChangePercent, out[j].ChangePercent)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// InstitutionalFlow is one day of FII or DII cash-market activity, in crores.
type InstitutionalFlow struct {
	Buy      float64 `json:"buy"`
	Sell     float64 `json:"sell"`
	Date     string  `json:"date,omitempty"`
	Category string  `json:"category,omitempty"`
}

func (f InstitutionalFlow) Net() float64 {
	return f.Buy - f.Sell
}

// Bullish reports a net inflow (net >= 0).
func (f InstitutionalFlow) Bullish() bool {
	return f.Net() >= 0
}

type FIIDII struct {
	FII  InstitutionalFlow `json:"fii"`
	DII  InstitutionalFlow `json:"dii"`
	Date string            `json:"date,omitempty"`
}

// News categories used by the news widget.
const (
	NewsMarketUpdate       = "Market Update"
	NewsPolicy             = "Policy"
	NewsFIIDII             = "FII/DII"
	NewsCompany            = "Company News"
	NewsEconomicIndicators = "Economic Indicators"
)

type NewsItem struct {
	ID          int       `json:"id"`
	TitleEn     string    `json:"titleEn"`
	TitleMr     string    `json:"titleMr"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"publishedAt"`
}

type DealKind string

const (
	BulkDeal  DealKind = "bulk"
	BlockDeal DealKind = "block"
)

// Deal is a single bulk or block transaction reported by the exchange.
type Deal struct {
	Symbol     string  `json:"symbol"`
	ClientName string  `json:"clientName"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Date       string  `json:"date"`
}

func (d Deal) IsBuy() bool {
	return strings.EqualFold(d.Side, "BUY")
}

// Value is quantity times trade price.
func (d Deal) Value() float64 {
	return d.Quantity * d.Price
}

// QuarterResult holds the headline numbers of one reported quarter.
// Monetary values are in the upstream unit (thousands of rupees).
type QuarterResult struct {
	Period          string   `json:"period"`
	NetSales        float64  `json:"netSales"`
	NetProfit       float64  `json:"netProfit"`
	ProfitBeforeTax float64  `json:"profitBeforeTax"`
	EPS             *float64 `json:"eps,omitempty"`
	ProfitMargin    *float64 `json:"profitMargin,omitempty"`
}

type PastResults struct {
	Symbol   string          `json:"symbol"`
	Quarters []QuarterResult `json:"quarters"`
}

// Latest returns the most recent quarter, which upstream lists first.
func (p PastResults) Latest() (QuarterResult, bool) {
	if len(p.Quarters) == 0 {
		return QuarterResult{}, false
	}
	return p.Quarters[0], true
}

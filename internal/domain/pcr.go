package domain

import "sort"

// PCREntry is the put/call open-interest ratio for one symbol.
type PCREntry struct {
	Symbol        string  `json:"symbol"`
	TradingSymbol string  `json:"tradingSymbol,omitempty"`
	PCR           float64 `json:"pcr"`
}

// PCRStats are aggregates over the whole fetched set, not a display slice.
type PCRStats struct {
	Avg          float64 `json:"avg"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	TotalSymbols int     `json:"totalSymbols"`
}

type PCRSet struct {
	Exchange string     `json:"exchange"`
	Entries  []PCREntry `json:"entries"`
	Stats    PCRStats   `json:"stats"`
}

// PCRFullSetLimit is the fetch size used when stats must describe every
// symbol rather than a display slice.
const PCRFullSetLimit = 200

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// ComputePCRStats aggregates entries. An empty set yields zero stats.
func ComputePCRStats(entries []PCREntry) PCRStats {
	if len(entries) == 0 {
		return PCRStats{}
	}
	stats := PCRStats{Min: entries[0].PCR, Max: entries[0].PCR, TotalSymbols: len(entries)}
	var sum float64
	for _, e := range entries {
		sum += e.PCR
		if e.PCR < stats.Min {
			stats.Min = e.PCR
		}
		if e.PCR > stats.Max {
			stats.Max = e.PCR
		}
	}
	stats.Avg = sum / float64(len(entries))
	return stats
}

// View returns at most limit entries sorted by PCR in the given order.
// The set itself, including its stats, is left untouched.
func (s PCRSet) View(limit int, order SortOrder) []PCREntry {
	out := append([]PCREntry(nil), s.Entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PCR != out[j].PCR {
			if order == SortAsc {
				return out[i].PCR < out[j].PCR
			}
			return out[i].PCR > out[j].PCR
		}
		return out[i].Symbol < out[j].Symbol
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

type Sentiment string

const (
	SentimentStrongBearish  Sentiment = "strong_bearish"
	SentimentBearish        Sentiment = "bearish"
	SentimentNeutralBearish Sentiment = "neutral_bearish"
	SentimentNeutralBullish Sentiment = "neutral_bullish"
	SentimentBullish        Sentiment = "bullish"
)

// PCRSentiment buckets a ratio; more puts than calls reads bearish.
func PCRSentiment(pcr float64) Sentiment {
	switch {
	case pcr > 1.2:
		return SentimentStrongBearish
	case pcr > 1.0:
		return SentimentBearish
	case pcr > 0.8:
		return SentimentNeutralBearish
	case pcr > 0.5:
		return SentimentNeutralBullish
	default:
		return SentimentBullish
	}
}

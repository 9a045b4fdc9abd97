package domain

import (
	"fmt"
	"testing"
)

func TestComputePCRStats(t *testing.T) {
	stats := ComputePCRStats([]PCREntry{{PCR: 0.5}, {PCR: 1.5}, {PCR: 1.0}})
	if stats.Avg != 1.0 || stats.Min != 0.5 || stats.Max != 1.5 || stats.TotalSymbols != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if empty := ComputePCRStats(nil); empty != (PCRStats{}) {
		t.Fatalf("expected zero stats, got %+v", empty)
	}
}

func TestPCRViewKeepsStats(t *testing.T) {
	entries := make([]PCREntry, 200)
	for i := range entries {
		entries[i] = PCREntry{Symbol: fmt.Sprintf("SYM%03d", i), PCR: float64(i) / 100}
	}
	set := PCRSet{Entries: entries, Stats: ComputePCRStats(entries)}
	before := set.Stats

	top := set.View(25, SortDesc)
	if len(top) != 25 {
		t.Fatalf("expected 25 entries, got %d", len(top))
	}
	if top[0].PCR != 1.99 {
		t.Fatalf("expected highest pcr first, got %f", top[0].PCR)
	}
	bottom := set.View(25, SortAsc)
	if bottom[0].PCR != 0 {
		t.Fatalf("expected lowest pcr first, got %f", bottom[0].PCR)
	}

	if set.Stats != before || set.Stats.TotalSymbols != 200 {
		t.Fatalf("stats changed after view: %+v", set.Stats)
	}
	if set.Entries[0].Symbol != "SYM000" {
		t.Fatal("view must not reorder the underlying entries")
	}
	if got := set.View(0, SortDesc); len(got) != 200 {
		t.Fatalf("limit 0 should return everything, got %d", len(got))
	}
}

func TestPCRSentiment(t *testing.T) {
	cases := map[float64]Sentiment{
		1.3: SentimentStrongBearish,
		1.1: SentimentBearish,
		0.9: SentimentNeutralBearish,
		0.6: SentimentNeutralBullish,
		0.4: SentimentBullish,
		1.0: SentimentNeutralBearish,
		0.5: SentimentBullish,
	}
	for pcr, want := range cases {
		if got := PCRSentiment(pcr); got != want {
			t.Fatalf("pcr %.2f: expected %s, got %s", pcr, want, got)
		}
	}
}

package matcher

import (
	"testing"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestTokenize_LowercasesAndDropsStopwordsAndShortTokens(t *testing.T) {
	tokens := Tokenize("Will the Fed cut rates in 2026?")
	for _, dropped := range []string{"the", "in", "will"} {
		if _, ok := tokens[dropped]; ok {
			t.Errorf("expected %q to be dropped", dropped)
		}
	}
	for _, kept := range []string{"fed", "cut", "rates", "2026"} {
		if _, ok := tokens[kept]; !ok {
			t.Errorf("expected %q to be kept, got %v", kept, tokens)
		}
	}
}

func TestTokenize_DiscardsTokensLengthTwoOrLess(t *testing.T) {
	tokens := Tokenize("Will AI GPT win by Q4")
	if _, ok := tokens["ai"]; ok {
		t.Error("expected 2-letter token 'ai' to be dropped")
	}
	if _, ok := tokens["q4"]; ok {
		t.Error("expected 2-letter token 'q4' to be dropped")
	}
	if _, ok := tokens["gpt"]; !ok {
		t.Error("expected 3-letter token 'gpt' to be kept")
	}
}

func TestJaccard_IdenticalSetsIsOne(t *testing.T) {
	a := Tokenize("will the fed cut rates")
	b := Tokenize("will the fed cut rates")
	if sim := jaccard(a, b); sim != 1 {
		t.Errorf("expected similarity 1, got %v", sim)
	}
}

func TestJaccard_DisjointSetsIsZero(t *testing.T) {
	a := Tokenize("fed rate decision march")
	b := Tokenize("super bowl winner team")
	if sim := jaccard(a, b); sim != 0 {
		t.Errorf("expected similarity 0, got %v", sim)
	}
}

func TestMatchMarkets_PairsSimilarQuestionsAboveThreshold(t *testing.T) {
	venueA := []types.Market{
		{ID: "poly-1", Question: "Will the Fed cut rates in March 2026?", YesPrice: 0.62},
		{ID: "poly-2", Question: "Will the Lakers win the championship?", YesPrice: 0.10},
	}
	venueB := []types.Market{
		{ID: "kalshi-1", Question: "Fed cuts interest rates in March 2026", YesPrice: 0.58},
		{ID: "kalshi-2", Question: "Total solar eclipse visible from New York", YesPrice: 0.01},
	}

	matches := MatchMarkets(venueA, venueB, DefaultMinSimilarity)

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].A.ID != "poly-1" || matches[0].B.ID != "kalshi-1" {
		t.Errorf("unexpected match pair: %+v", matches[0])
	}
	if matches[0].PriceGap < 0.03 || matches[0].PriceGap > 0.05 {
		t.Errorf("expected price gap ~0.04, got %v", matches[0].PriceGap)
	}
}

func TestMatchMarkets_SortedByPriceGapDescending(t *testing.T) {
	venueA := []types.Market{
		{ID: "a1", Question: "Will candidate X win the election runoff", YesPrice: 0.50},
		{ID: "a2", Question: "Will inflation exceed three percent this year", YesPrice: 0.20},
	}
	venueB := []types.Market{
		{ID: "b1", Question: "Will candidate X win the election runoff", YesPrice: 0.55},
		{ID: "b2", Question: "Will inflation exceed three percent this year", YesPrice: 0.45},
	}

	matches := MatchMarkets(venueA, venueB, DefaultMinSimilarity)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].A.ID != "a2" {
		t.Errorf("expected the larger price gap (a2) first, got %+v", matches[0])
	}
}

// Package matcher pairs equivalent binary markets across Polymarket and
// Kalshi by question-text similarity, feeding the dependency graph with
// EXACTLY_ONE-equivalent cross-venue pairs for the arbitrage detector.
package matcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// DefaultMinSimilarity is the Jaccard threshold below which two questions
// are not considered the same market.
const DefaultMinSimilarity = 0.4

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "will": {}, "with": {}, "that": {},
	"this": {}, "from": {}, "has": {}, "have": {}, "are": {}, "was": {},
	"were": {}, "been": {}, "what": {}, "who": {}, "does": {}, "did": {},
	"not": {}, "but": {}, "its": {}, "into": {}, "than": {}, "then": {},
}

// Match is a cross-venue pairing: a market on venue A and its best match on
// venue B, above min_similarity.
type Match struct {
	A          types.Market
	B          types.Market
	Similarity float64
	PriceGap   float64 // |yes_price_A - yes_price_B|
}

// Tokenize lowercases, strips non-alphanumerics, and discards stopwords and
// tokens of length <=2.
func Tokenize(question string) map[string]struct{} {
	tokens := make(map[string]struct{})

	var b strings.Builder
	flush := func() {
		if b.Len() > 2 {
			word := b.String()
			if _, stop := stopwords[word]; !stop {
				tokens[word] = struct{}{}
			}
		}
		b.Reset()
	}

	for _, r := range strings.ToLower(question) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// jaccard computes |a ∩ b| / |a ∪ b|, 0 if both sets are empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// MatchMarkets finds, for each market in venueA, its best-matching market in
// venueB by Jaccard similarity of tokenized questions, keeping only pairs
// meeting minSimilarity. Output is sorted by price-gap descending — the
// candidates most worth checking for mispricing come first.
func MatchMarkets(venueA, venueB []types.Market, minSimilarity float64) []Match {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}

	tokensB := make([]map[string]struct{}, len(venueB))
	for j, m := range venueB {
		tokensB[j] = Tokenize(m.Question)
	}

	matches := make([]Match, 0, len(venueA))

	for _, ma := range venueA {
		tokensA := Tokenize(ma.Question)

		bestJ := -1
		bestSim := minSimilarity

		for j := range venueB {
			sim := jaccard(tokensA, tokensB[j])
			if sim >= bestSim {
				bestSim = sim
				bestJ = j
			}
		}

		if bestJ == -1 {
			continue
		}

		mb := venueB[bestJ]
		gap := mb.YesPrice - ma.YesPrice
		if gap < 0 {
			gap = -gap
		}

		matches = append(matches, Match{A: ma, B: mb, Similarity: bestSim, PriceGap: gap})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].PriceGap > matches[j].PriceGap })

	return matches
}

package matching

import (
	"strings"
	"time"
)

// DescriptionScorer rates how likely two descriptions refer to the same
// real-world event, in [0,1]. The default is deterministic token-set
// Jaccard similarity; an advisory scorer (e.g. model-backed) can be
// swapped in without touching the rest of the engine.
type DescriptionScorer interface {
	Score(itemDesc, txDesc string) float64
}

// JaccardScorer scores descriptions by token-set Jaccard similarity over
// normalized, lower-cased, whitespace-split words.
type JaccardScorer struct{}

func (JaccardScorer) Score(itemDesc, txDesc string) float64 {
	a := tokenSet(itemDesc)
	b := tokenSet(txDesc)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(normalizeDescription(s)) {
		out[tok] = true
	}
	return out
}

func normalizeDescription(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.TrimSpace(s)
}

// dateProximity decays linearly from 1.0 at zero days difference to 0.0 at
// the window edge.
func dateProximity(itemDate, txDate time.Time, w Window) float64 {
	maxDist := w.maxDistanceDays(itemDate)
	if maxDist <= 0 {
		return 1
	}
	score := 1 - daysBetween(itemDate, txDate)/maxDist
	if score < 0 {
		return 0
	}
	return score
}

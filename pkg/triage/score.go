package triage

import "strings"

// Tier is a weighted group of priority keywords.
type Tier struct {
	Name     string
	Weight   int
	Keywords []string
}

// Scorer computes an integer priority score from weighted keyword hits.
type Scorer struct {
	tiers []Tier
}

// NewScorer builds a scorer with lowercased keywords.
func NewScorer(tiers []Tier) *Scorer {
	lowered := make([]Tier, len(tiers))
	for i, tier := range tiers {
		keywords := make([]string, len(tier.Keywords))
		for j, kw := range tier.Keywords {
			keywords[j] = strings.ToLower(kw)
		}
		lowered[i] = Tier{Name: tier.Name, Weight: tier.Weight, Keywords: keywords}
	}
	return &Scorer{tiers: lowered}
}

// Score sums, over all tiers, the tier weight times the number of keyword
// occurrences in the text. Each keyword is counted independently, even when
// one keyword is a substring of another. There is no upper bound.
func (s *Scorer) Score(text string) int {
	lower := strings.ToLower(text)

	score := 0
	for _, tier := range s.tiers {
		hits := 0
		for _, kw := range tier.Keywords {
			hits += strings.Count(lower, kw)
		}
		score += tier.Weight * hits
	}
	return score
}

package triage

import "strings"

// Relevance flags regional relevance and exclusion. The two checks are
// independent: a text can be both relevant and excluded.
type Relevance struct {
	regional []string
	exclude  []string
}

// NewRelevance builds a relevance filter with lowercased keyword lists.
func NewRelevance(regional, exclude []string) *Relevance {
	r := &Relevance{
		regional: make([]string, len(regional)),
		exclude:  make([]string, len(exclude)),
	}
	for i, kw := range regional {
		r.regional[i] = strings.ToLower(kw)
	}
	for i, kw := range exclude {
		r.exclude[i] = strings.ToLower(kw)
	}
	return r
}

// IsRelevant reports whether any regional-relevance keyword appears in text.
func (r *Relevance) IsRelevant(text string) bool {
	return containsAny(strings.ToLower(text), r.regional)
}

// IsExcluded reports whether any exclusion keyword appears in text.
func (r *Relevance) IsExcluded(text string) bool {
	return containsAny(strings.ToLower(text), r.exclude)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

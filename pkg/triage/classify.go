// Package triage holds the pure keyword heuristics applied to every
// incoming article: category classification, priority scoring, and the
// relevance/exclusion flags. All matching is case-insensitive substring
// matching (a deterministic heuristic, not a learned model).
package triage

import "strings"

// DefaultCategory is assigned when no category keyword matches at all.
const DefaultCategory = "General"

// Category is a topic label with the keywords that vote for it.
type Category struct {
	Name     string
	Keywords []string
}

// Classifier assigns one category label to a piece of text. Declaration
// order of the categories breaks ties.
type Classifier struct {
	categories []Category
}

// NewClassifier builds a classifier. Keywords are lowercased once here so
// Classify only lowercases the input text.
func NewClassifier(categories []Category) *Classifier {
	lowered := make([]Category, len(categories))
	for i, cat := range categories {
		keywords := make([]string, len(cat.Keywords))
		for j, kw := range cat.Keywords {
			keywords[j] = strings.ToLower(kw)
		}
		lowered[i] = Category{Name: cat.Name, Keywords: keywords}
	}
	return &Classifier{categories: lowered}
}

// Classify returns the category whose keywords match the text most often.
// Zero matches anywhere yields DefaultCategory.
func (c *Classifier) Classify(text string) string {
	lower := strings.ToLower(text)

	best := DefaultCategory
	bestCount := 0
	for _, cat := range c.categories {
		count := 0
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		// Strictly greater, so the earliest declared category wins ties.
		if count > bestCount {
			best = cat.Name
			bestCount = count
		}
	}
	return best
}

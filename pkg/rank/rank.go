// Package rank implements the diversity-first story pick over a
// rank-ordered candidate list. It is pure: the store runs it inside the
// selection transaction.
package rank

import (
	"sort"

	"github.com/modernusa/newsdesk/internal/store"
)

// Pick chooses up to count articles from candidates, which must already be
// ordered best-first.
//
// If candidates fit within count they are all returned. Otherwise the first
// pass walks the list in rank order taking the first article of each
// category not yet represented; the second pass fills any remaining slots
// from the unpicked remainder by descending priority score, ignoring
// category. Whenever len(candidates) >= count, exactly count articles come
// back.
func Pick(candidates []store.Article, count int) []store.Article {
	if count <= 0 || len(candidates) == 0 {
		return nil
	}
	if len(candidates) <= count {
		out := make([]store.Article, len(candidates))
		copy(out, candidates)
		return out
	}

	picked := make([]store.Article, 0, count)
	pickedIDs := make(map[int64]bool, count)
	seenCategories := make(map[string]bool)

	for _, a := range candidates {
		if seenCategories[a.Category] {
			continue
		}
		seenCategories[a.Category] = true
		picked = append(picked, a)
		pickedIDs[a.ID] = true
		if len(picked) == count {
			return picked
		}
	}

	remainder := make([]store.Article, 0, len(candidates)-len(picked))
	for _, a := range candidates {
		if !pickedIDs[a.ID] {
			remainder = append(remainder, a)
		}
	}
	// Stable keeps the incoming rank order among equal scores.
	sort.SliceStable(remainder, func(i, j int) bool {
		return remainder[i].PriorityScore > remainder[j].PriorityScore
	})

	for _, a := range remainder {
		if len(picked) == count {
			break
		}
		picked = append(picked, a)
	}
	return picked
}

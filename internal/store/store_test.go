package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// seed inserts an article and fails the test if it was a duplicate.
func seed(t *testing.T, st *SQLiteStore, a Article) Article {
	t.Helper()
	if a.PublishedTime.IsZero() {
		a.PublishedTime = time.Now().UTC()
	}
	inserted, err := st.UpsertArticle(context.Background(), &a)
	require.NoError(t, err)
	require.True(t, inserted, "expected a new row for %q", a.Title)
	return a
}

// eligible returns a relevant, non-excluded, unselected article.
func eligible(title, category string, score int) Article {
	return Article{
		Title:         title,
		Link:          "https://example.com/" + title,
		Source:        "Test Wire",
		Category:      category,
		PriorityScore: score,
		IsRelevant:    true,
		CollectedTime: time.Now().UTC(),
	}
}

func TestUpsertIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := Article{
		Title:      "Senate Passes Bill",
		Link:       "https://example.com/senate-passes-bill",
		Source:     "Test Wire",
		IsRelevant: true,
	}
	a.PublishedTime = time.Now().UTC()

	inserted, err := st.UpsertArticle(ctx, &a)
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := a
	dup.ID = 0
	dup.Fingerprint = ""
	inserted, err = st.UpsertArticle(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted, "identical (title, link) must be a no-op")

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalArticles)
}

func TestUpsertBatchCountsNewRowsOnly(t *testing.T) {
	st := newTestStore(t)

	articles := []Article{
		eligible("first", "Politics", 10),
		eligible("second", "Sports", 5),
		eligible("first", "Politics", 10), // duplicate of the first
	}
	for i := range articles {
		articles[i].PublishedTime = time.Now().UTC()
	}

	added, err := st.UpsertArticles(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestFingerprintNormalization(t *testing.T) {
	assert.Equal(t,
		Fingerprint("Senate Passes Bill", "https://example.com/x"),
		Fingerprint("SENATE PASSES BILL", "HTTPS://EXAMPLE.COM/X"))
	assert.NotEqual(t,
		Fingerprint("Senate Passes Bill", "https://example.com/x"),
		Fingerprint("Senate Passes Bill", "https://example.com/y"))
}

func TestFetchCandidatesFiltersAndOrders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	high := eligible("high", "Politics", 20)
	low := eligible("low", "Politics", 5)

	excluded := eligible("excluded", "Politics", 99)
	excluded.IsExcluded = true

	irrelevant := eligible("irrelevant", "Politics", 99)
	irrelevant.IsRelevant = false

	stale := eligible("stale", "Politics", 99)
	stale.CollectedTime = now.Add(-30 * time.Hour)

	selected := eligible("already selected", "Politics", 99)
	selected.State = StateSelected

	for _, a := range []Article{high, low, excluded, irrelevant, stale, selected} {
		seed(t, st, a)
	}

	got, err := st.FetchCandidates(ctx, CandidateOpts{WindowHours: 24})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].Title)
	assert.Equal(t, "low", got[1].Title)
}

func TestFetchCandidatesTieBreakByFingerprint(t *testing.T) {
	st := newTestStore(t)
	collected := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 4; i++ {
		a := eligible(fmt.Sprintf("tied-%d", i), "Politics", 10)
		a.CollectedTime = collected
		seed(t, st, a)
	}

	got, err := st.FetchCandidates(context.Background(), CandidateOpts{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Fingerprint, got[i].Fingerprint,
			"equal (score, collected_time) must order by fingerprint")
	}
}

func TestFetchCandidatesLimit(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 10; i++ {
		seed(t, st, eligible(fmt.Sprintf("n%d", i), "Politics", i))
	}

	got, err := st.FetchCandidates(context.Background(), CandidateOpts{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

// takeAll selects every candidate up to count, preserving rank order.
func takeAll(candidates []Article, count int) []Article {
	if len(candidates) <= count {
		return candidates
	}
	return candidates[:count]
}

func TestSelectStoriesMarksSelectedAtomically(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seed(t, st, eligible("a", "Politics", 20))
	seed(t, st, eligible("b", "Sports", 12))
	seed(t, st, eligible("c", "Economy", 8))

	stories, err := st.SelectStories(ctx, SelectOpts{Count: 2}, takeAll)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	for _, a := range stories {
		assert.Equal(t, StateSelected, a.State)
	}

	// A second invocation must not see the already-selected rows.
	again, err := st.SelectStories(ctx, SelectOpts{Count: 2}, takeAll)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "c", again[0].Title)
}

func TestSelectStoriesDoublesWindowWhenEmpty(t *testing.T) {
	st := newTestStore(t)

	old := eligible("yesterday's news", "Politics", 10)
	old.CollectedTime = time.Now().UTC().Add(-30 * time.Hour)
	seed(t, st, old)

	stories, err := st.SelectStories(context.Background(), SelectOpts{Count: 1, WindowHours: 24}, takeAll)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "yesterday's news", stories[0].Title)
}

func TestSelectStoriesEmptyIsNotAnError(t *testing.T) {
	st := newTestStore(t)

	stories, err := st.SelectStories(context.Background(), SelectOpts{Count: 3}, takeAll)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestSelectStoriesNeverReturnsExcluded(t *testing.T) {
	st := newTestStore(t)

	spam := eligible("kardashian gossip", "Politics", 1000)
	spam.IsExcluded = true
	seed(t, st, spam)
	seed(t, st, eligible("real news", "Politics", 1))

	stories, err := st.SelectStories(context.Background(), SelectOpts{Count: 2}, takeAll)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "real news", stories[0].Title)
}

func TestSelectStoriesSerialized(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seed(t, st, eligible(fmt.Sprintf("concurrent-%d", i), "Politics", i))
	}

	results := make(chan []Article, 2)
	for i := 0; i < 2; i++ {
		go func() {
			stories, err := st.SelectStories(ctx, SelectOpts{Count: 2}, takeAll)
			assert.NoError(t, err)
			results <- stories
		}()
	}

	seen := make(map[int64]bool)
	total := 0
	for i := 0; i < 2; i++ {
		for _, a := range <-results {
			assert.False(t, seen[a.ID], "two invocations picked article %d", a.ID)
			seen[a.ID] = true
			total++
		}
	}
	assert.Equal(t, 4, total)
}

func TestMarkPostedAndReset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seed(t, st, eligible(fmt.Sprintf("story-%d", i), "Politics", 10-i))
	}

	stories, err := st.SelectStories(ctx, SelectOpts{Count: 4}, takeAll)
	require.NoError(t, err)
	require.Len(t, stories, 4)

	posted, err := st.MarkPosted(ctx, []int64{stories[0].ID, stories[1].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), posted)

	// Reset reverts the remaining Selected rows but never touches Posted.
	reset, err := st.ResetSelections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reset)

	postedRows, err := st.ListArticles(ctx, ListOpts{State: StatePosted})
	require.NoError(t, err)
	assert.Len(t, postedRows, 2)

	selectedRows, err := st.ListArticles(ctx, ListOpts{State: StateSelected})
	require.NoError(t, err)
	assert.Empty(t, selectedRows)
}

func TestMarkPostedIgnoresNonSelected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := seed(t, st, eligible("unselected", "Politics", 10))

	n, err := st.MarkPosted(ctx, []int64{a.ID, 9999})
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := st.ListArticles(ctx, ListOpts{State: StateUnselected})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StateUnselected, rows[0].State)
}

func TestMarkPostedEmpty(t *testing.T) {
	st := newTestStore(t)
	n, err := st.MarkPosted(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeKeepsPostedRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	tenDaysAgo := time.Now().UTC().AddDate(0, 0, -10)

	postedOld := eligible("posted old", "Politics", 10)
	postedOld.CollectedTime = tenDaysAgo
	postedOld.State = StatePosted
	seed(t, st, postedOld)

	unselectedOld := eligible("unselected old", "Politics", 10)
	unselectedOld.CollectedTime = tenDaysAgo
	seed(t, st, unselectedOld)

	fresh := seed(t, st, eligible("fresh", "Politics", 10))

	deleted, err := st.Purge(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rows, err := st.ListArticles(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	titles := []string{rows[0].Title, rows[1].Title}
	assert.Contains(t, titles, "posted old")
	assert.Contains(t, titles, fresh.Title)
}

func TestStatsAndSelectionSummary(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := eligible("politics story", "Politics", 10)
	a.Source = "CNN"
	seed(t, st, a)

	b := eligible("sports story", "Sports", 8)
	b.Source = "NBC News"
	seed(t, st, b)

	spam := eligible("gossip", "General", 0)
	spam.Source = "CNN"
	spam.IsRelevant = false
	spam.IsExcluded = true
	seed(t, st, spam)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalArticles)
	assert.Equal(t, 2, stats.Relevant)
	assert.Equal(t, 1, stats.Excluded)
	assert.Equal(t, 2, stats.Sources)

	_, err = st.SelectStories(ctx, SelectOpts{Count: 2}, takeAll)
	require.NoError(t, err)

	summary, err := st.SelectionSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Politics": 1, "Sports": 1}, summary)
}

func TestListArticlesFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := eligible("cnn politics", "Politics", 10)
	a.Source = "CNN"
	seed(t, st, a)

	b := eligible("nbc sports", "Sports", 5)
	b.Source = "NBC News"
	seed(t, st, b)

	bySource, err := st.ListArticles(ctx, ListOpts{Source: "CNN"})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "cnn politics", bySource[0].Title)

	byCategory, err := st.ListArticles(ctx, ListOpts{Category: "Sports"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "nbc sports", byCategory[0].Title)
}

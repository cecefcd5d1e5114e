// Package pipeline runs one collection cycle: fetch every configured source,
// annotate the entries, and upsert them into the store.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modernusa/newsdesk/internal/config"
	"github.com/modernusa/newsdesk/internal/store"
	"github.com/modernusa/newsdesk/pkg/feed"
	"github.com/modernusa/newsdesk/pkg/triage"
)

// RunStats reports what one collection cycle did.
type RunStats struct {
	PerSource   map[string]int `json:"per_source"` // new articles per source
	Entries     int            `json:"entries"`    // normalized entries seen
	NewArticles int            `json:"new_articles"`
}

// Pipeline wires the fetcher, the triage heuristics, and the store.
type Pipeline struct {
	store      store.Store
	fetcher    *feed.Fetcher
	classifier *triage.Classifier
	scorer     *triage.Scorer
	relevance  *triage.Relevance
	sources    []feed.Source
	maxFetch   int
}

// New builds a pipeline from configuration.
func New(cfg *config.Config, st store.Store) *Pipeline {
	categories := make([]triage.Category, len(cfg.Categories))
	for i, c := range cfg.Categories {
		categories[i] = triage.Category{Name: c.Name, Keywords: c.Keywords}
	}
	tiers := make([]triage.Tier, len(cfg.Priority))
	for i, t := range cfg.Priority {
		tiers[i] = triage.Tier{Name: t.Name, Weight: t.Weight, Keywords: t.Keywords}
	}
	sources := make([]feed.Source, len(cfg.Sources))
	for i, s := range cfg.Sources {
		sources[i] = feed.Source{Name: s.Name, Feeds: s.Feeds}
	}

	maxFetch := cfg.Fetch.MaxConcurrency
	if maxFetch <= 0 {
		maxFetch = 4
	}

	return &Pipeline{
		store:      st,
		fetcher:    feed.NewFetcher(cfg.Fetch.ParseTimeout(), cfg.Fetch.ParsePace()),
		classifier: triage.NewClassifier(categories),
		scorer:     triage.NewScorer(tiers),
		relevance:  triage.NewRelevance(cfg.Relevance.Regional, cfg.Relevance.Exclude),
		sources:    sources,
		maxFetch:   maxFetch,
	}
}

// Run executes one collection cycle. Sources are fetched concurrently; a
// failing source contributes zero entries, but a store failure aborts the
// cycle and propagates.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{PerSource: make(map[string]int)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxFetch)

	for _, src := range p.sources {
		src := src
		g.Go(func() error {
			entries := p.fetcher.Fetch(gctx, src)
			articles := p.annotate(entries)

			added, err := p.store.UpsertArticles(gctx, articles)
			if err != nil {
				return err
			}

			mu.Lock()
			stats.PerSource[src.Name] = added
			stats.Entries += len(entries)
			stats.NewArticles += added
			mu.Unlock()

			slog.Info("source collected", "source", src.Name, "entries", len(entries), "new", added)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// annotate turns normalized entries into articles: category, priority score,
// and the relevance/exclusion flags, all from the combined title and
// description text.
func (p *Pipeline) annotate(entries []feed.Entry) []store.Article {
	now := time.Now().UTC()
	articles := make([]store.Article, 0, len(entries))
	for _, e := range entries {
		text := e.Title + " " + e.Description
		articles = append(articles, store.Article{
			Fingerprint:   store.Fingerprint(e.Title, e.Link),
			Title:         e.Title,
			Description:   e.Description,
			Link:          e.Link,
			Source:        e.Source,
			Category:      p.classifier.Classify(text),
			PublishedTime: e.Published,
			CollectedTime: now,
			PriorityScore: p.scorer.Score(text),
			IsRelevant:    p.relevance.IsRelevant(text),
			IsExcluded:    p.relevance.IsExcluded(text),
			State:         store.StateUnselected,
		})
	}
	return articles
}

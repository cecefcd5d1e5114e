package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SelectionState tracks where an article is in the publishing lifecycle.
// Posted is terminal: no operation moves an article out of it.
type SelectionState string

const (
	StateUnselected SelectionState = "unselected"
	StateSelected   SelectionState = "selected"
	StatePosted     SelectionState = "posted"
)

// Article is one deduplicated news item. Exactly one row exists per
// fingerprint at any time.
type Article struct {
	ID            int64          `db:"id" json:"id"`
	Fingerprint   string         `db:"fingerprint" json:"fingerprint"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Link          string         `db:"link" json:"link"`
	Source        string         `db:"source" json:"source"`
	Category      string         `db:"category" json:"category"`
	PublishedTime time.Time      `db:"published_time" json:"published_time"`
	CollectedTime time.Time      `db:"collected_time" json:"collected_time"`
	PriorityScore int            `db:"priority_score" json:"priority_score"`
	IsRelevant    bool           `db:"is_relevant" json:"is_relevant"`
	IsExcluded    bool           `db:"is_excluded" json:"is_excluded"`
	State         SelectionState `db:"state" json:"state"`
}

// Fingerprint is the dedup key: a hash of the normalized (title, link) pair.
func Fingerprint(title, link string) string {
	sum := md5.Sum([]byte(strings.ToLower(title + "|" + link)))
	return hex.EncodeToString(sum[:])
}

// CandidateOpts controls candidate queries.
type CandidateOpts struct {
	WindowHours int // recency window on collected_time (default 24)
	Limit       int // max candidates returned (default 50)
}

// SelectOpts controls story selection.
type SelectOpts struct {
	Count          int // target story count (default 5)
	WindowHours    int // initial recency window; doubled once if empty (default 24)
	CandidateLimit int // candidate pool cap (default 50)
}

// PickFunc chooses up to count articles from rank-ordered candidates.
// It must be pure: SelectStories calls it inside a transaction.
type PickFunc func(candidates []Article, count int) []Article

// ListOpts controls article listing.
type ListOpts struct {
	Source   string
	Category string
	State    SelectionState
	Since    time.Time
	Limit    int
}

// Stats summarizes the article table for status reporting.
type Stats struct {
	TotalArticles int `json:"total_articles"`
	Relevant      int `json:"relevant"`
	Excluded      int `json:"excluded"`
	Sources       int `json:"sources"`
}

// Store is the persistence interface.
type Store interface {
	UpsertArticle(ctx context.Context, a *Article) (bool, error)
	UpsertArticles(ctx context.Context, articles []Article) (int, error)
	FetchCandidates(ctx context.Context, opts CandidateOpts) ([]Article, error)
	SelectStories(ctx context.Context, opts SelectOpts, pick PickFunc) ([]Article, error)
	MarkPosted(ctx context.Context, ids []int64) (int64, error)
	ResetSelections(ctx context.Context) (int64, error)
	Purge(ctx context.Context, retentionDays int) (int64, error)
	ListArticles(ctx context.Context, opts ListOpts) ([]Article, error)
	Stats(ctx context.Context) (*Stats, error)
	SelectionSummary(ctx context.Context) (map[string]int, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB

	// Serializes SelectStories invocations so two overlapping calls can
	// never pick overlapping candidate sets.
	selMu sync.Mutex
}

// New opens a SQLite database and runs migrations. The connection pool is
// capped at one connection: SQLite allows a single writer anyway, and it
// keeps ":memory:" databases coherent in tests.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertArticle inserts a new article row, or does nothing if a row with the
// same fingerprint already exists. Returns true if a row was inserted.
func (s *SQLiteStore) UpsertArticle(ctx context.Context, a *Article) (bool, error) {
	if a.Fingerprint == "" {
		a.Fingerprint = Fingerprint(a.Title, a.Link)
	}
	if a.State == "" {
		a.State = StateUnselected
	}
	if a.CollectedTime.IsZero() {
		a.CollectedTime = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (fingerprint, title, description, link, source, category,
			published_time, collected_time, priority_score, is_relevant, is_excluded, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, a.Fingerprint, a.Title, a.Description, a.Link, a.Source, a.Category,
		a.PublishedTime, a.CollectedTime, a.PriorityScore, a.IsRelevant, a.IsExcluded, a.State)
	if err != nil {
		return false, fmt.Errorf("upsert article %s: %w", a.Fingerprint, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert article %s: %w", a.Fingerprint, err)
	}
	if n == 0 {
		return false, nil
	}
	a.ID, _ = res.LastInsertId()
	return true, nil
}

// UpsertArticles upserts a batch and returns how many rows were new.
func (s *SQLiteStore) UpsertArticles(ctx context.Context, articles []Article) (int, error) {
	added := 0
	for i := range articles {
		inserted, err := s.UpsertArticle(ctx, &articles[i])
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// candidateQuery ranks eligible unselected articles. Fingerprint order is the
// final tie-break so identical (score, collected_time) pairs rank
// deterministically.
const candidateQuery = `
	SELECT * FROM articles
	WHERE is_relevant = 1
	  AND is_excluded = 0
	  AND state = ?
	  AND collected_time >= ?
	ORDER BY priority_score DESC, collected_time DESC, fingerprint ASC
	LIMIT ?`

// FetchCandidates returns eligible, unselected articles collected within the
// window, best-ranked first.
func (s *SQLiteStore) FetchCandidates(ctx context.Context, opts CandidateOpts) ([]Article, error) {
	windowHours, limit := candidateDefaults(opts.WindowHours, opts.Limit)
	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	var candidates []Article
	if err := s.db.SelectContext(ctx, &candidates, candidateQuery, StateUnselected, cutoff, limit); err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return candidates, nil
}

// SelectStories queries candidates, lets pick choose up to opts.Count of
// them, and marks the chosen rows Selected, all inside one transaction with
// invocations fully serialized. If the initial window yields no candidates it
// is doubled once; an empty result is not an error.
func (s *SQLiteStore) SelectStories(ctx context.Context, opts SelectOpts, pick PickFunc) ([]Article, error) {
	s.selMu.Lock()
	defer s.selMu.Unlock()

	count := opts.Count
	if count <= 0 {
		count = 5
	}
	windowHours, limit := candidateDefaults(opts.WindowHours, opts.CandidateLimit)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("select stories: begin: %w", err)
	}
	defer tx.Rollback()

	candidates, err := txCandidates(ctx, tx, windowHours, limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// Nothing fresh; retry once with a doubled window.
		candidates, err = txCandidates(ctx, tx, windowHours*2, limit)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	picked := pick(candidates, count)
	if len(picked) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(picked))
	for i := range picked {
		ids[i] = picked[i].ID
	}

	query, args, err := sqlx.In(`UPDATE articles SET state = ? WHERE id IN (?)`, StateSelected, ids)
	if err != nil {
		return nil, fmt.Errorf("select stories: build update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select stories: mark selected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("select stories: commit: %w", err)
	}

	for i := range picked {
		picked[i].State = StateSelected
	}
	return picked, nil
}

func txCandidates(ctx context.Context, tx *sqlx.Tx, windowHours, limit int) ([]Article, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	var candidates []Article
	if err := tx.SelectContext(ctx, &candidates, candidateQuery, StateUnselected, cutoff, limit); err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return candidates, nil
}

func candidateDefaults(windowHours, limit int) (int, int) {
	if windowHours <= 0 {
		windowHours = 24
	}
	if limit <= 0 {
		limit = 50
	}
	return windowHours, limit
}

// MarkPosted moves the given articles from Selected to Posted. IDs not
// currently Selected are left untouched; the call is idempotent.
func (s *SQLiteStore) MarkPosted(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(
		`UPDATE articles SET state = ? WHERE id IN (?) AND state = ?`,
		StatePosted, ids, StateSelected)
	if err != nil {
		return 0, fmt.Errorf("mark posted: build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("mark posted: %w", err)
	}
	return res.RowsAffected()
}

// ResetSelections reverts every Selected article to Unselected. Posted rows
// are never affected.
func (s *SQLiteStore) ResetSelections(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET state = ? WHERE state = ?`, StateUnselected, StateSelected)
	if err != nil {
		return 0, fmt.Errorf("reset selections: %w", err)
	}
	return res.RowsAffected()
}

// Purge deletes articles collected more than retentionDays ago, except
// Posted rows, which are retained indefinitely.
func (s *SQLiteStore) Purge(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE collected_time < ? AND state != ?`, cutoff, StatePosted)
	if err != nil {
		return 0, fmt.Errorf("purge articles: %w", err)
	}
	return res.RowsAffected()
}

// ListArticles returns articles matching opts, most recently collected first.
func (s *SQLiteStore) ListArticles(ctx context.Context, opts ListOpts) ([]Article, error) {
	query := "SELECT * FROM articles WHERE 1=1"
	var args []any

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if opts.Category != "" {
		query += " AND category = ?"
		args = append(args, opts.Category)
	}
	if opts.State != "" {
		query += " AND state = ?"
		args = append(args, opts.State)
	}
	if !opts.Since.IsZero() {
		query += " AND collected_time >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY collected_time DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var articles []Article
	if err := s.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// Stats returns aggregate counts for status reporting.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	queries := []struct {
		dst   *int
		query string
	}{
		{&st.TotalArticles, "SELECT COUNT(*) FROM articles"},
		{&st.Relevant, "SELECT COUNT(*) FROM articles WHERE is_relevant = 1"},
		{&st.Excluded, "SELECT COUNT(*) FROM articles WHERE is_excluded = 1"},
		{&st.Sources, "SELECT COUNT(DISTINCT source) FROM articles"},
	}
	for _, q := range queries {
		if err := s.db.GetContext(ctx, q.dst, q.query); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}
	return st, nil
}

// SelectionSummary returns per-category counts of currently Selected articles.
func (s *SQLiteStore) SelectionSummary(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT category, COUNT(*) AS cnt FROM articles WHERE state = ? GROUP BY category`, StateSelected)
	if err != nil {
		return nil, fmt.Errorf("selection summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]int)
	for rows.Next() {
		var category string
		var cnt int
		if err := rows.Scan(&category, &cnt); err != nil {
			return nil, fmt.Errorf("selection summary: %w", err)
		}
		summary[category] = cnt
	}
	return summary, rows.Err()
}

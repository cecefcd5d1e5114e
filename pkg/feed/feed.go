// Package feed retrieves raw entries from configured feed endpoints and
// normalizes them. This stage is purely transformation: no store mutation
// happens here.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// Source is a named news outlet with one or more feed endpoint URLs.
type Source struct {
	Name  string
	Feeds []string
}

// Entry is a normalized feed item, not yet classified or scored.
type Entry struct {
	Title       string
	Description string
	Link        string
	Source      string
	Published   time.Time
}

// Fetcher pulls and normalizes feed entries. A single limiter paces all
// endpoint requests so bursty collection stays polite to feed servers.
type Fetcher struct {
	client  *http.Client
	parser  *gofeed.Parser
	limiter *rate.Limiter
}

// NewFetcher creates a fetcher with the given per-request timeout and the
// minimum delay between endpoint requests.
func NewFetcher(timeout, pace time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if pace <= 0 {
		pace = time.Second
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(rate.Every(pace), 1),
	}
}

// Fetch retrieves entries from every endpoint of a source. A failing
// endpoint yields zero entries for that endpoint only: the error is logged
// and sibling endpoints still run.
func (f *Fetcher) Fetch(ctx context.Context, src Source) []Entry {
	var all []Entry
	for _, url := range src.Feeds {
		entries, err := f.FetchEndpoint(ctx, src.Name, url)
		if err != nil {
			slog.Warn("feed endpoint failed", "source", src.Name, "url", url, "error", err)
			continue
		}
		all = append(all, entries...)
	}
	return all
}

// FetchEndpoint retrieves and normalizes the entries of one feed URL.
// Entries missing a title or link are dropped silently.
func (f *Fetcher) FetchEndpoint(ctx context.Context, sourceName, url string) ([]Entry, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "newsdesk/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", url, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	now := time.Now().UTC()
	var entries []Entry
	for _, item := range parsed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		if title == "" || link == "" {
			continue
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		published := now
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC()
		}

		entries = append(entries, Entry{
			Title:       title,
			Description: plainText(description),
			Link:        link,
			Source:      sourceName,
			Published:   published,
		})
	}
	return entries, nil
}

// plainText strips HTML markup that many feeds embed in descriptions.
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

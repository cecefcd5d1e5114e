package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test Feed</title>
  <item>
    <title>Senate Passes Bill</title>
    <link>https://example.com/senate</link>
    <description>&lt;p&gt;The &lt;b&gt;senate&lt;/b&gt; passed a bill today.&lt;/p&gt;</description>
    <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/no-title</link>
    <description>Missing title, must be dropped</description>
  </item>
  <item>
    <title>No Link Item</title>
    <description>Missing link, must be dropped</description>
  </item>
  <item>
    <title>No Date Item</title>
    <link>https://example.com/no-date</link>
    <description>Published falls back to now</description>
  </item>
</channel>
</rss>`

func newTestFetcher() *Fetcher {
	// Zero pacing so tests run fast.
	return NewFetcher(5*time.Second, time.Nanosecond)
}

func TestFetchEndpointNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := newTestFetcher()
	before := time.Now().UTC()
	entries, err := f.FetchEndpoint(context.Background(), "Test Wire", srv.URL)
	require.NoError(t, err)

	// Items missing title or link are dropped silently.
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "Senate Passes Bill", first.Title)
	assert.Equal(t, "https://example.com/senate", first.Link)
	assert.Equal(t, "Test Wire", first.Source)
	assert.Equal(t, "The senate passed a bill today.", first.Description, "HTML must be stripped")
	assert.Equal(t, 2026, first.Published.Year())

	second := entries[1]
	assert.Equal(t, "No Date Item", second.Title)
	assert.False(t, second.Published.Before(before), "missing pubDate falls back to fetch time")
}

func TestFetchEndpointHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher()
	entries, err := f.FetchEndpoint(context.Background(), "Test Wire", srv.URL)
	assert.Error(t, err)
	assert.Nil(t, entries)
}

func TestFetchIsolatesFailingEndpoints(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	f := newTestFetcher()
	entries := f.Fetch(context.Background(), Source{
		Name:  "Test Wire",
		Feeds: []string{bad.URL, good.URL},
	})

	// The failing endpoint contributes zero entries; its sibling still runs.
	assert.Len(t, entries, 2)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain already", plainText("  plain already "))
	assert.Equal(t, "bold and linked", plainText(`<p><b>bold</b> and <a href="x">linked</a></p>`))
}

package testutil

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/fetch"
)

// StaticFetcher serves published documents from memory. URLs it does not
// know fail with a 404 TransportError.
type StaticFetcher struct {
	mu      sync.Mutex
	sources map[string]string
	fetches []string
}

var _ fetch.Fetcher = (*StaticFetcher)(nil)

// NewStaticFetcher creates a fetcher with nothing published.
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{sources: make(map[string]string)}
}

// Publish makes body available at rawURL, replacing any earlier version.
func (f *StaticFetcher) Publish(rawURL, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[rawURL] = body
}

func (f *StaticFetcher) Fetch(ctx context.Context, rawURL string) (fetch.CanonicalSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, rawURL)

	if err := ctx.Err(); err != nil {
		return fetch.CanonicalSource{}, &fetch.TransportError{URL: rawURL, Err: err}
	}
	body, ok := f.sources[rawURL]
	if !ok {
		return fetch.CanonicalSource{}, &fetch.TransportError{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fetch.CanonicalSource{}, &fetch.TransportError{URL: rawURL, Err: err}
	}
	return fetch.CanonicalSource{
		URL:       rawURL,
		Path:      fetch.SourcePath(u),
		Content:   body,
		FetchedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

// Fetches returns the URLs requested so far.
func (f *StaticFetcher) Fetches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetches...)
}

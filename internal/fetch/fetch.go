// Package fetch retrieves the canonical (published) notebook source.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
)

// CanonicalSource is the published document as fetched at session start.
type CanonicalSource struct {
	// URL is the absolute URL the source was fetched from.
	URL string

	// Path is the store key for the canonical entry: the last element of
	// the URL path, NFC-normalized.
	Path string

	Content   string
	FetchedAt time.Time
}

// Fetcher retrieves canonical document bytes.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (CanonicalSource, error)
}

// TransportError reports a failed fetch: a network failure or a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPFetcher fetches over HTTP(S). file:// URLs are read from disk so a
// local notebook can be served without a web server.
type HTTPFetcher struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client

	// Base resolves relative source URLs, playing the role of the host
	// page's location. Relative URLs without a Base are rejected.
	Base *url.URL

	// Now defaults to time.Now.
	Now func() time.Time
}

// Fetch resolves rawURL against Base and retrieves its body.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (CanonicalSource, error) {
	u, err := f.resolve(rawURL)
	if err != nil {
		return CanonicalSource{}, &TransportError{URL: rawURL, Err: err}
	}

	var body []byte
	switch u.Scheme {
	case "file":
		body, err = os.ReadFile(u.Path)
		if err != nil {
			return CanonicalSource{}, &TransportError{URL: u.String(), Err: err}
		}
	case "http", "https":
		body, err = f.get(ctx, u)
		if err != nil {
			return CanonicalSource{}, err
		}
	default:
		return CanonicalSource{}, &TransportError{URL: u.String(), Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	return CanonicalSource{
		URL:       u.String(),
		Path:      SourcePath(u),
		Content:   string(body),
		FetchedAt: f.now(),
	}, nil
}

func (f *HTTPFetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: u.String(), StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

func (f *HTTPFetcher) resolve(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	if u.IsAbs() {
		return u, nil
	}
	if f.Base == nil {
		return nil, fmt.Errorf("relative source url %q without a base", rawURL)
	}
	return f.Base.ResolveReference(u), nil
}

func (f *HTTPFetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// SourcePath returns the canonical store path for a source URL.
func SourcePath(u *url.URL) string {
	return content.NormalizePath(path.Base(u.Path))
}

// Package fetch reads post bodies by locator.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// ErrStatus is wrapped by HTTPFetcher when the response is not a success
var ErrStatus = errors.New("unexpected response status")

// Fetcher reads the text behind a locator
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (string, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, locator string) (string, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, locator string) (string, error) {
	return f(ctx, locator)
}

// HTTPFetcher issues a plain GET per locator against BaseURL
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher. A zero timeout means none.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// URL resolves a locator against the base URL. Absolute locators are kept.
func (h *HTTPFetcher) URL(locator string) string {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}
	return strings.TrimSuffix(h.BaseURL, "/") + "/" + strings.TrimPrefix(locator, "/")
}

// Fetch implements Fetcher
func (h *HTTPFetcher) Fetch(ctx context.Context, locator string) (string, error) {
	url := h.URL(locator)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", locator, err)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: %w: %s", locator, ErrStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", locator, err)
	}
	return string(body), nil
}

// FSFetcher reads locators from a filesystem, normally the embedded bundle
type FSFetcher struct {
	FS fs.FS
}

// Fetch implements Fetcher
func (f FSFetcher) Fetch(ctx context.Context, locator string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := fs.ReadFile(f.FS, FSName(locator))
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", locator, err)
	}
	return string(data), nil
}

// FSName maps a locator to the name FSFetcher opens: rooted and unclean
// locators like "/posts/./a.md" name "posts/a.md".
func FSName(locator string) string {
	return path.Clean(strings.TrimPrefix(locator, "/"))
}

// Observer is told about every completed fetch
type Observer func(locator string, took time.Duration, err error)

// Observed wraps f so that obs sees each fetch
func Observed(f Fetcher, obs Observer) Fetcher {
	if obs == nil {
		return f
	}
	return FetcherFunc(func(ctx context.Context, locator string) (string, error) {
		start := time.Now()
		text, err := f.Fetch(ctx, locator)
		obs(locator, time.Since(start), err)
		return text, err
	})
}

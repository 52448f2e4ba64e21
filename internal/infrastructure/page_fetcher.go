package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/yourusername/pin-extract-go/internal/harvest"
)

// maxPageBytes caps how much of a page is parsed
const maxPageBytes = 16 << 20

// HTTPPageFetcher loads pages over HTTP and parses them for scanning
type HTTPPageFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPPageFetcher creates a page fetcher. A zero timeout means no timeout.
func NewHTTPPageFetcher(timeout time.Duration, userAgent string) *HTTPPageFetcher {
	return &HTTPPageFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves pageURL and parses it; relative media URLs resolve against
// the final URL after redirects.
func (f *HTTPPageFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return harvest.ParseDocument(http.MaxBytesReader(nil, resp.Body, maxPageBytes), resp.Request.URL)
}

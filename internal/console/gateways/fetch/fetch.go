// Package fetch retrieves remote blocklist content over HTTP with a
// bounded timeout. A timeout is reported like any other fetch failure.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// maxBodyBytes caps a single list download; hosts files are text and even
// the large public lists stay well under this.
const maxBodyBytes = 64 << 20 // 64 MiB

// Fetcher downloads source lists.
type Fetcher struct {
	client *http.Client
}

// New returns a Fetcher with the given per-request timeout (defaulted when
// zero or negative).
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the content at url. Non-2xx responses are failures.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return body, nil
}

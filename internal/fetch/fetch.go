// Package fetch performs manifest and segment retrieval over HTTP, with
// retry/backoff, byte-range support, and a small in-process manifest
// cache. It serves manifest and segment requests; direct-file downloads
// in internal/scheduler stream through net/http on their own.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// Retry policy: three attempts total, exponential backoff from a
// 500ms base, ±20% jitter.
const (
	maxAttempts  = 3
	backoffBase  = 500 * time.Millisecond
	backoffScale = 2
	jitterFrac   = 0.2
)

// Client fetches manifests and segments over HTTP.
type Client struct {
	http  *http.Client
	cache *manifestCache
}

// New builds a Client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	return &Client{
		http:  &http.Client{Timeout: timeout},
		cache: newManifestCache(manifestCacheCapacity),
	}
}

// ByteRange requests bytes [Offset, Offset+Length) inclusive-start when
// Length > 0. A zero-value ByteRange fetches the whole resource.
type ByteRange struct {
	Offset int64
	Length int64
}

func (r ByteRange) empty() bool { return r.Length <= 0 && r.Offset <= 0 }

func (r ByteRange) header() string {
	if r.Length <= 0 {
		return fmt.Sprintf("bytes=%d-", r.Offset)
	}
	return fmt.Sprintf("bytes=%d-%d", r.Offset, r.Offset+r.Length-1)
}

// Manifest fetches url and returns its body, consulting and populating
// the manifest cache. Manifests are cached by URL for the lifetime of
// the process, capped at manifestCacheCapacity entries.
func (c *Client) Manifest(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.get(url); ok {
		return body, nil
	}
	body, err := c.getWithRetry(ctx, url, ByteRange{})
	if err != nil {
		return nil, err
	}
	c.cache.put(url, body)
	return body, nil
}

// Segment fetches a single media or initialization segment, optionally
// restricted to a byte range.
func (c *Client) Segment(ctx context.Context, url string, rng ByteRange) ([]byte, error) {
	return c.getWithRetry(ctx, url, rng)
}

func (c *Client) getWithRetry(ctx context.Context, url string, rng ByteRange) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		body, err := c.get(ctx, url, rng)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (c *Client) get(ctx context.Context, url string, rng ByteRange) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if !rng.empty() {
		req.Header.Set("Range", rng.header())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func sleepBackoff(ctx context.Context, attempt int) error {
	delay := backoffBase
	for i := 0; i < attempt-1; i++ {
		delay *= backoffScale
	}
	jitter := time.Duration(float64(delay) * jitterFrac * (rand.Float64()*2 - 1))
	delay += jitter

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package scheduler

import (
	"context"

	"github.com/grabkit/companion/internal/fetch"
)

// Fetcher is the subset of *fetch.Client the scheduler depends on.
// Tests substitute a fake to drive segment timing deterministically.
type Fetcher interface {
	Manifest(ctx context.Context, url string) ([]byte, error)
	Segment(ctx context.Context, url string, rng fetch.ByteRange) ([]byte, error)
}

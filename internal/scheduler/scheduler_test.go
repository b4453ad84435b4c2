package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grabkit/companion/internal/fetch"
	"github.com/grabkit/companion/internal/model"
)

const oneSegmentPlaylist = `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXTINF:10.0,
segment0.ts
#EXT-X-ENDLIST
`

const twoSegmentPlaylist = `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXTINF:10.0,
segment0.ts
#EXTINF:10.0,
segment1.ts
#EXT-X-ENDLIST
`

// fakeFetcher stands in for *fetch.Client in tests, letting Segment calls
// be delayed or made to observe cancellation without a network round trip.
type fakeFetcher struct {
	manifest []byte

	segmentDelay time.Duration

	mu      sync.Mutex
	current int
	maxSeen int
}

func (f *fakeFetcher) Manifest(ctx context.Context, url string) ([]byte, error) {
	return f.manifest, nil
}

func (f *fakeFetcher) Segment(ctx context.Context, url string, rng fetch.ByteRange) ([]byte, error) {
	f.mu.Lock()
	f.current++
	if f.current > f.maxSeen {
		f.maxSeen = f.current
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.current--
		f.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.segmentDelay):
		return []byte("data"), nil
	}
}

func (f *fakeFetcher) maxConcurrentSegments() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

func TestStartDownload_RefusesDRMStream(t *testing.T) {
	var errored *model.DownloadJob
	sched := New(t.TempDir(), 3, nil, nil, nil, Sinks{
		OnError: func(j model.DownloadJob) { errored = &j },
	})

	stream := model.DetectedStream{ID: "s1", Type: model.StreamTypeHLS, Protection: model.ProtectionDRM}
	id, err := sched.StartDownload(stream, model.VideoQuality{}, nil)
	if err != nil {
		t.Fatalf("StartDownload: %v", err)
	}
	if errored == nil {
		t.Fatal("expected OnError to fire for DRM-marked stream")
	}
	if errored.Status != model.StatusFailed {
		t.Errorf("status = %v, want failed", errored.Status)
	}

	jobs := sched.GetDownloads()
	if len(jobs) != 1 || jobs[0].ID != id {
		t.Errorf("GetDownloads = %v", jobs)
	}
}

func TestCancelDownload_PendingJobCancelsWithoutRunning(t *testing.T) {
	var mu sync.Mutex
	var events []model.DownloadStatus

	sched := New(t.TempDir(), 1, nil, nil, nil, Sinks{
		OnProgress: func(j model.DownloadJob) {
			mu.Lock()
			events = append(events, j.Status)
			mu.Unlock()
		},
	})

	// Occupy the single concurrency slot so the next job stays pending.
	sched.sem <- struct{}{}
	defer func() { <-sched.sem }()

	stream := model.DetectedStream{ID: "s1", Type: model.StreamTypeUnknown}
	id, err := sched.StartDownload(stream, model.VideoQuality{}, nil)
	if err != nil {
		t.Fatalf("StartDownload: %v", err)
	}

	// Give runQueued a moment to reach its semaphore select.
	time.Sleep(20 * time.Millisecond)

	if err := sched.CancelDownload(id); err != nil {
		t.Fatalf("CancelDownload: %v", err)
	}

	jobs := sched.GetDownloads()
	if jobs[0].Status != model.StatusCancelled {
		t.Errorf("status = %v, want cancelled", jobs[0].Status)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 || events[len(events)-1] != model.StatusCancelled {
		t.Errorf("expected a final cancelled progress event, got %v", events)
	}
}

func TestCancelDownload_UnknownJobErrors(t *testing.T) {
	sched := New(t.TempDir(), 3, nil, nil, nil, Sinks{})
	if err := sched.CancelDownload("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown job ID")
	}
}

func TestScheduler_BoundedConcurrency(t *testing.T) {
	fetcher := &fakeFetcher{manifest: []byte(oneSegmentPlaylist), segmentDelay: 60 * time.Millisecond}

	var mu sync.Mutex
	remaining := 3
	done := make(chan struct{})
	sched := New(t.TempDir(), 2, fetcher, nil, nil, Sinks{
		OnComplete: func(j model.DownloadJob) {
			mu.Lock()
			remaining--
			if remaining == 0 {
				close(done)
			}
			mu.Unlock()
		},
		OnError: func(j model.DownloadJob) {
			t.Errorf("job %s failed: %s", j.ID, j.Error)
		},
	})

	for i := 0; i < 3; i++ {
		stream := model.DetectedStream{ID: fmt.Sprintf("s%d", i), Type: model.StreamTypeHLS, SourceURL: "https://example.com/master.m3u8"}
		if _, err := sched.StartDownload(stream, model.VideoQuality{}, nil); err != nil {
			t.Fatalf("StartDownload: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for jobs to complete")
	}

	if got := fetcher.maxConcurrentSegments(); got > 2 {
		t.Errorf("observed %d concurrent segment fetches, want at most maxConcurrent=2", got)
	}
}

func TestScheduler_CancelMidDownloadCleansScratchDir(t *testing.T) {
	downloadPath := t.TempDir()
	fetcher := &fakeFetcher{manifest: []byte(twoSegmentPlaylist), segmentDelay: 200 * time.Millisecond}

	var mu sync.Mutex
	var finalStatus model.DownloadStatus
	settled := make(chan struct{})
	sched := New(downloadPath, 1, fetcher, nil, nil, Sinks{
		OnProgress: func(j model.DownloadJob) {
			if j.Status == model.StatusCancelled {
				mu.Lock()
				finalStatus = j.Status
				mu.Unlock()
				close(settled)
			}
		},
	})

	stream := model.DetectedStream{ID: "s1", Type: model.StreamTypeHLS, SourceURL: "https://example.com/master.m3u8"}
	id, err := sched.StartDownload(stream, model.VideoQuality{}, nil)
	if err != nil {
		t.Fatalf("StartDownload: %v", err)
	}

	scratchDir := filepath.Join(downloadPath, fmt.Sprintf(".scratch-%s", id))
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(scratchDir); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("scratch dir %s never appeared", scratchDir)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := sched.CancelDownload(id); err != nil {
		t.Fatalf("CancelDownload: %v", err)
	}

	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job to settle after cancellation")
	}

	mu.Lock()
	got := finalStatus
	mu.Unlock()
	if got != model.StatusCancelled {
		t.Errorf("status = %v, want cancelled", got)
	}

	if _, err := os.Stat(scratchDir); !os.IsNotExist(err) {
		t.Errorf("scratch dir %s still exists after cancellation: %v", scratchDir, err)
	}
}

package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/fetch"
	"github.com/grabkit/companion/internal/hls"
	"github.com/grabkit/companion/internal/model"
	"github.com/grabkit/companion/internal/urltemplate"
)

func (s *Scheduler) runHLS(ctx context.Context, entry *jobEntry) error {
	job := entry.job

	body, err := s.fetcher.Manifest(ctx, job.Stream.SourceURL)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	playlist, err := hls.Parse(body, job.Stream.SourceURL)
	if err != nil {
		return err
	}

	mediaURL := job.Stream.SourceURL
	if playlist.Kind == hls.KindMaster {
		variant := selectVariant(playlist.Master.Variants, job.Quality.Height)
		mediaURL = variant.URL

		mediaBody, err := s.fetcher.Manifest(ctx, mediaURL)
		if err != nil {
			return fmt.Errorf("fetch media playlist: %w", err)
		}
		playlist, err = hls.Parse(mediaBody, mediaURL)
		if err != nil {
			return err
		}
	}
	if playlist.Kind != hls.KindMedia {
		return fmt.Errorf("%w: expected media playlist", apperr.ErrInvalidManifest)
	}
	media := playlist.Media
	if len(media.Segments) == 0 {
		return fmt.Errorf("%w: media playlist has no segments", apperr.ErrUnresolvableSegments)
	}

	scratchDir := filepath.Join(s.DownloadPath, fmt.Sprintf(".scratch-%s", job.ID))
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	cleanScratch := func() { os.RemoveAll(scratchDir) }

	var segmentPaths []string
	if media.Map != nil {
		initPath := filepath.Join(scratchDir, "init.ts")
		if _, err := s.fetchToFile(ctx, media.Map.URI, mapByteRange(media.Map), initPath); err != nil {
			cleanScratch()
			return err
		}
		segmentPaths = append(segmentPaths, initPath)
	}

	tracker := newProgressTracker(len(media.Segments))
	for i, seg := range media.Segments {
		if ctx.Err() != nil {
			cleanScratch()
			return apperr.ErrAborted
		}

		segPath := filepath.Join(scratchDir, fmt.Sprintf("segment-%05d.ts", i))
		rng := segmentByteRange(seg.ByteRange)
		size, err := s.fetchToFile(ctx, seg.URI, rng, segPath)
		if err != nil {
			os.Remove(segPath)
			cleanScratch()
			if ctx.Err() != nil {
				return apperr.ErrAborted
			}
			return &apperr.SegmentFetchError{Index: i, Cause: err}
		}
		segmentPaths = append(segmentPaths, segPath)
		s.updateProgress(entry, tracker.recordSegment(size))
	}

	s.transitionStatus(entry, model.StatusMerging)

	outputName := urltemplate.SanitizeFilename(outputTitle(job), 200)
	outputPath, err := s.mergeOrConcat(ctx, segmentPaths,
		filepath.Join(s.DownloadPath, outputName+".mp4"),
		filepath.Join(s.DownloadPath, outputName+".ts"))
	if err != nil {
		cleanScratch()
		return err
	}

	s.mu.Lock()
	entry.job.OutputPath = outputPath
	s.mu.Unlock()

	cleanScratch()
	return nil
}

func selectVariant(variants []hls.Variant, wantHeight int) hls.Variant {
	for _, v := range variants {
		if v.Resolution != nil && v.Resolution.Height == wantHeight {
			return v
		}
	}
	return variants[0] // sorted descending by bandwidth
}

func mapByteRange(m *hls.InitSegment) fetch.ByteRange {
	return segmentByteRange(m.ByteRange)
}

func segmentByteRange(br *hls.ByteRange) fetch.ByteRange {
	if br == nil {
		return fetch.ByteRange{}
	}
	offset := int64(0)
	if br.Offset != nil {
		offset = *br.Offset
	}
	return fetch.ByteRange{Offset: offset, Length: br.Length}
}

func (s *Scheduler) fetchToFile(ctx context.Context, url string, rng fetch.ByteRange, path string) (int, error) {
	data, err := s.fetcher.Segment(ctx, url, rng)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return len(data), nil
}

// transitionStatus moves a still-active job to next and emits a progress
// event carrying the new status.
func (s *Scheduler) transitionStatus(entry *jobEntry, next model.DownloadStatus) {
	s.mu.Lock()
	if entry.job.Status.CanTransitionTo(next) {
		entry.job.Status = next
	}
	job := *entry.job
	s.mu.Unlock()
	s.notifyProgress(job)
}

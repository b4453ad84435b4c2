package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/dash"
	"github.com/grabkit/companion/internal/fetch"
	"github.com/grabkit/companion/internal/model"
	"github.com/grabkit/companion/internal/urltemplate"
)

func (s *Scheduler) runDASH(ctx context.Context, entry *jobEntry) error {
	job := entry.job

	body, err := s.fetcher.Manifest(ctx, job.Stream.SourceURL)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	manifest, err := dash.Parse(body, job.Stream.SourceURL)
	if err != nil {
		return err
	}

	videoSet := selectAdaptationSet(manifest.AdaptationSets, dash.ContentTypeVideo)
	if videoSet == nil {
		return fmt.Errorf("%w: no video adaptation set", apperr.ErrUnresolvableSegments)
	}
	rep := selectRepresentation(videoSet.Representations, job.Quality.Height)
	if len(rep.SegmentURLs) == 0 {
		return fmt.Errorf("%w: representation has no segments", apperr.ErrUnresolvableSegments)
	}

	scratchDir := filepath.Join(s.DownloadPath, fmt.Sprintf(".scratch-%s", job.ID))
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	cleanScratch := func() { os.RemoveAll(scratchDir) }

	var segmentPaths []string
	if rep.InitializationURL != "" {
		initPath := filepath.Join(scratchDir, "init.mp4")
		if _, err := s.fetchToFile(ctx, rep.InitializationURL, fetch.ByteRange{}, initPath); err != nil {
			cleanScratch()
			return err
		}
		segmentPaths = append(segmentPaths, initPath)
	}

	tracker := newProgressTracker(len(rep.SegmentURLs))
	for i, url := range rep.SegmentURLs {
		if ctx.Err() != nil {
			cleanScratch()
			return apperr.ErrAborted
		}

		segPath := filepath.Join(scratchDir, fmt.Sprintf("segment-%05d.m4s", i))
		size, err := s.fetchToFile(ctx, url, fetch.ByteRange{}, segPath)
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

	if s.enc == nil {
		// Raw concatenation only produces a playable file when segments are
		// self-contained; without an encoder that isn't knowable up front,
		// so DASH treats a missing encoder as fatal rather than guessing.
		cleanScratch()
		return fmt.Errorf("merge: no encoder configured for DASH output")
	}

	outputName := urltemplate.SanitizeFilename(outputTitle(job), 200)
	outputPath := filepath.Join(s.DownloadPath, outputName+".mp4")
	result, err := s.enc.Merge(ctx, segmentPaths, outputPath)
	if err != nil {
		cleanScratch()
		return fmt.Errorf("merge: %w", err)
	}

	s.mu.Lock()
	entry.job.OutputPath = result.OutputPath
	s.mu.Unlock()

	cleanScratch()
	return nil
}

func selectAdaptationSet(sets []dash.AdaptationSet, want dash.ContentType) *dash.AdaptationSet {
	for i := range sets {
		if sets[i].ContentType == want {
			return &sets[i]
		}
	}
	return nil
}

func selectRepresentation(reps []dash.Representation, wantHeight int) dash.Representation {
	for _, r := range reps {
		if r.Height == wantHeight {
			return r
		}
	}
	return reps[0]
}

package scheduler

import (
	"context"
	"fmt"

	"github.com/grabkit/companion/internal/helper"
	"github.com/grabkit/companion/internal/model"
)

// runYTDLP delegates the whole download to the external extractor
// helper; the scheduler only relays its progress.
func (s *Scheduler) runYTDLP(ctx context.Context, entry *jobEntry) error {
	if s.hlp == nil {
		return fmt.Errorf("no external helper configured for this stream")
	}
	job := entry.job

	result, err := s.hlp.Run(ctx, job.Stream.SourceURL, s.DownloadPath, job.Quality.Height, func(p helper.Progress) {
		s.updateProgress(entry, model.DownloadProgress{
			DownloadedBytes: p.DownloadedBPS,
			SpeedBPS:        p.SpeedBPS,
			ETASeconds:      p.ETASeconds,
			Percentage:      p.Percentage,
		}.Clamp())
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	entry.job.OutputPath = result.OutputPath
	s.mu.Unlock()
	return nil
}

package scheduler

import (
	"time"

	"github.com/grabkit/companion/internal/model"
)

// progressTracker derives running speed/ETA/percentage estimates from a
// stream of completed-segment byte counts.
type progressTracker struct {
	start             time.Time
	downloadedBytes   int64
	completedSegments int
	totalSegments     int
}

func newProgressTracker(totalSegments int) *progressTracker {
	return &progressTracker{start: time.Now(), totalSegments: totalSegments}
}

func (t *progressTracker) recordSegment(segmentBytes int) model.DownloadProgress {
	t.downloadedBytes += int64(segmentBytes)
	t.completedSegments++

	elapsed := time.Since(t.start).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(t.downloadedBytes) / elapsed
	}

	avgSegmentBytes := float64(t.downloadedBytes) / float64(t.completedSegments)
	totalBytes := int64(avgSegmentBytes * float64(t.totalSegments))

	remaining := t.totalSegments - t.completedSegments
	var eta int64
	if speed > 0 {
		eta = int64(float64(remaining) * avgSegmentBytes / speed)
	}

	current := t.completedSegments
	total := t.totalSegments

	return model.DownloadProgress{
		DownloadedBytes: t.downloadedBytes,
		TotalBytes:      totalBytes,
		SpeedBPS:        speed,
		ETASeconds:      eta,
		Percentage:      100 * float64(current) / float64(total),
		CurrentSegment:  &current,
		TotalSegments:   &total,
	}
}

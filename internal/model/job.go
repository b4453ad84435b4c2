package model

import "time"

// DownloadProgress is a snapshot of a job's transfer state. Invariants:
// DownloadedBytes <= TotalBytes when TotalBytes > 0, and
// 0 <= Percentage <= 100.
type DownloadProgress struct {
	DownloadedBytes int64   `json:"downloadedBytes"`
	TotalBytes      int64   `json:"totalBytes"` // 0 if unknown
	SpeedBPS        float64 `json:"speedBps"`
	ETASeconds      int64   `json:"etaSeconds"`
	Percentage      float64 `json:"percentage"`

	CurrentSegment *int `json:"currentSegment,omitempty"`
	TotalSegments  *int `json:"totalSegments,omitempty"`
}

// Clamp normalizes Percentage into [0, 100] and DownloadedBytes to never
// exceed a known TotalBytes, guarding the invariants after arithmetic
// that could otherwise overshoot due to rounding.
func (p DownloadProgress) Clamp() DownloadProgress {
	if p.TotalBytes > 0 && p.DownloadedBytes > p.TotalBytes {
		p.DownloadedBytes = p.TotalBytes
	}
	if p.Percentage < 0 {
		p.Percentage = 0
	}
	if p.Percentage > 100 {
		p.Percentage = 100
	}
	return p
}

// DownloadJob is one requested download, tracked for the lifetime of the
// scheduling process.
type DownloadJob struct {
	ID      string         `json:"id"`
	Stream  DetectedStream `json:"stream"`
	Quality VideoQuality   `json:"quality"`
	Audio   *AudioTrack    `json:"audio,omitempty"`

	Status   DownloadStatus   `json:"status"`
	Progress DownloadProgress `json:"progress"`

	OutputPath string `json:"outputPath,omitempty"`
	Error      string `json:"error,omitempty"`

	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt"`
}

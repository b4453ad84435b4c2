package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/grabkit/companion/internal/model"
	"github.com/grabkit/companion/internal/urltemplate"
)

// runDirect streams a single URL straight to disk. Progress comes from
// the transfer's own running byte counter rather than a segment count.
func (s *Scheduler) runDirect(ctx context.Context, entry *jobEntry) error {
	job := entry.job

	outputName := urltemplate.SanitizeFilename(outputTitle(job), 200)
	outputPath := filepath.Join(s.DownloadPath, outputName+".mp4")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.Stream.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	pw := &directProgressWriter{
		dst:   out,
		total: resp.ContentLength,
		start: time.Now(),
		onProgress: func(p model.DownloadProgress) {
			s.updateProgress(entry, p)
		},
	}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("write output: %w", err)
	}

	s.mu.Lock()
	entry.job.OutputPath = outputPath
	s.mu.Unlock()

	return nil
}

// directProgressWriter wraps the output file so every Write reports an
// updated DownloadProgress derived from the HTTP transfer's own byte
// count.
type directProgressWriter struct {
	dst        io.Writer
	total      int64 // -1 or 0 when unknown
	downloaded int64
	start      time.Time
	onProgress func(model.DownloadProgress)
}

func (w *directProgressWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	w.downloaded += int64(n)

	var pct float64
	if w.total > 0 {
		pct = 100 * float64(w.downloaded) / float64(w.total)
	}
	elapsed := time.Since(w.start).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(w.downloaded) / elapsed
	}
	var eta int64
	if speed > 0 && w.total > 0 {
		eta = int64(float64(w.total-w.downloaded) / speed)
	}

	totalBytes := w.total
	if totalBytes < 0 {
		totalBytes = 0
	}
	w.onProgress(model.DownloadProgress{
		DownloadedBytes: w.downloaded,
		TotalBytes:      totalBytes,
		SpeedBPS:        speed,
		ETASeconds:      eta,
		Percentage:      pct,
	}.Clamp())

	return n, err
}

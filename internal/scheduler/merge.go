package scheduler

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grabkit/companion/internal/model"
)

// outputTitle picks the name a finished download is saved under, before
// sanitization: the page title when known, falling back to the job ID.
func outputTitle(job *model.DownloadJob) string {
	if job.Stream.PageTitle != "" {
		return job.Stream.PageTitle
	}
	return job.ID
}

// mergeOrConcat merges segmentPaths via the discovered encoder, or, when
// none is configured, falls back to raw byte concatenation into
// fallbackPath. mp4Path is used only when an encoder is available.
func (s *Scheduler) mergeOrConcat(ctx context.Context, segmentPaths []string, mp4Path, fallbackPath string) (string, error) {
	if s.enc != nil {
		result, err := s.enc.Merge(ctx, segmentPaths, mp4Path)
		if err != nil {
			return "", fmt.Errorf("merge: %w", err)
		}
		return result.OutputPath, nil
	}
	return fallbackPath, concatFiles(segmentPaths, fallbackPath)
}

func concatFiles(paths []string, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	defer out.Close()

	for _, p := range paths {
		if err := appendFile(out, p); err != nil {
			return fmt.Errorf("append %s: %w", p, err)
		}
	}
	return nil
}

func appendFile(dst io.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(dst, in)
	return err
}

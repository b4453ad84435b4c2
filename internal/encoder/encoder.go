// Package encoder wraps an external ffmpeg-compatible binary used to
// concat-mux downloaded segments into a single output file.
// It performs no decoding, transcoding, or DRM handling of its own.
package encoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/telemetry"
)

// Standard install locations, probed after an explicit path and before
// the PATH lookup, mirroring how the platform layer resolves external tools.
var standardPaths = map[string][]string{
	"darwin":  {"/opt/homebrew/bin/ffmpeg", "/usr/local/bin/ffmpeg"},
	"linux":   {"/usr/bin/ffmpeg", "/usr/local/bin/ffmpeg"},
	"windows": {`C:\ffmpeg\bin\ffmpeg.exe`},
}

const versionProbeTimeout = 5 * time.Second

// Encoder locates and drives an ffmpeg-compatible binary.
type Encoder struct {
	binPath string
	log     *slog.Logger
}

// SetLogger attaches a logger for merge invocations. nil disables it.
func (e *Encoder) SetLogger(log *slog.Logger) {
	e.log = log
}

// Discover resolves the encoder binary: an explicit path if given and
// executable, otherwise the standard install locations for the current
// OS, otherwise PATH. It validates the result with -version.
func Discover(ctx context.Context, explicitPath string) (*Encoder, error) {
	candidates := candidatePaths(explicitPath)

	var lastErr error
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if err := probeVersion(ctx, path); err != nil {
			lastErr = err
			continue
		}
		return &Encoder{binPath: path}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no ffmpeg binary found")
	}
	return nil, fmt.Errorf("encoder discovery failed: %w", lastErr)
}

func candidatePaths(explicit string) []string {
	var candidates []string
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, standardPaths[runtime.GOOS]...)
	if found, err := exec.LookPath("ffmpeg"); err == nil {
		candidates = append(candidates, found)
	}
	return candidates
}

func probeVersion(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "-version")
	return cmd.Run()
}

// MergeResult reports the outcome of a merge operation.
type MergeResult struct {
	OutputPath string
}

// Merge concatenates segmentPaths, in order, into outputPath using the
// concat demuxer with stream copy (no re-encode). It writes and cleans
// up a scratch concat list file alongside outputPath.
func (e *Encoder) Merge(ctx context.Context, segmentPaths []string, outputPath string) (*MergeResult, error) {
	if len(segmentPaths) == 0 {
		return nil, fmt.Errorf("%w: no segments to merge", apperr.ErrInvalidManifest)
	}

	listPath, err := writeConcatList(segmentPaths, outputPath)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{"-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", "-y", outputPath}
	if e.log != nil {
		telemetry.LogHelperInvocation(ctx, e.log, e.binPath, args)
	}
	cmd := exec.CommandContext(ctx, e.binPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("merge: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("merge: start: %w", err)
	}

	// Drain stderr fully before Wait, which closes the pipe.
	tail := captureTail(stderr, 20)()

	if err := cmd.Wait(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &apperr.MergeError{ExitCode: exitCode, StderrTail: strings.Join(tail, "\n")}
	}

	return &MergeResult{OutputPath: outputPath}, nil
}

func writeConcatList(segmentPaths []string, outputPath string) (string, error) {
	listPath := outputPath + ".concat.txt"
	f, err := os.Create(listPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range segmentPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(w, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return listPath, w.Flush()
}

// captureTail drains r on a background goroutine, retaining the last n
// lines, and returns a function that blocks until draining is done and
// returns them.
func captureTail(r io.Reader, n int) func() []string {
	lines := make([]string, 0, n)
	done := make(chan struct{})

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
			if len(lines) > n {
				lines = lines[1:]
			}
		}
	}()

	return func() []string {
		<-done
		return lines
	}
}

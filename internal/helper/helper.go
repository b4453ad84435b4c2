// Package helper delegates a single stream to an external ytdlp-style
// extractor process when a source cannot be handled by the HLS/DASH
// parsers directly. It never re-implements extractor heuristics; it
// only launches the process, parses its human-readable progress
// output, and reports completion.
package helper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/telemetry"
)

// Progress is one parsed progress line.
type Progress struct {
	Percentage    float64
	DownloadedBPS int64 // best-effort; 0 when the line omits a known size
	SpeedBPS      float64
	ETASeconds    int64
}

// Result reports the resolved output path once the helper reports a
// destination or completed merge.
type Result struct {
	OutputPath string
}

// Handler runs the external binary against a URL, forwarding parsed
// progress and delivering the resolved output path on success.
type Handler struct {
	binPath string
	log     *slog.Logger
}

// New builds a Handler for the given binary path (resolved by the
// caller, typically via config or PATH lookup).
func New(binPath string) *Handler {
	return &Handler{binPath: binPath}
}

// SetLogger attaches a logger for process invocations. nil disables it.
func (h *Handler) SetLogger(log *slog.Logger) {
	h.log = log
}

// Run launches the helper against sourceURL, writing output under
// outputDir. heightLimit caps the selected video track's height, or 0
// for no limit. onProgress is called for every parsed progress line;
// it may be nil.
func (h *Handler) Run(ctx context.Context, sourceURL, outputDir string, heightLimit int, onProgress func(Progress)) (*Result, error) {
	args := []string{
		"-f", formatSelector(heightLimit),
		"--merge-output-format", "mp4",
		"-o", outputDir + "/%(title)s.%(ext)s",
		"--newline",
		"--no-warnings",
		sourceURL,
	}
	if h.log != nil {
		telemetry.LogHelperInvocation(ctx, h.log, h.binPath, args)
	}
	cmd := exec.CommandContext(ctx, h.binPath, args...)
	configureProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("helper: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("helper: start: %w", err)
	}

	result := &Result{}
	scanLines(stdout, func(line string) {
		if p, ok := parseProgressLine(line); ok && onProgress != nil {
			onProgress(p)
		}
		if path, ok := extractOutputPath(line); ok {
			result.OutputPath = path
		}
	})

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, apperr.ErrAborted
		}
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &apperr.HelperError{ExitCode: exitCode}
	}

	if result.OutputPath == "" {
		return nil, fmt.Errorf("helper: no output path reported")
	}
	return result, nil
}

// formatSelector builds the -f selector: capped to heightLimit when
// given, else the plain best-available selector.
func formatSelector(heightLimit int) string {
	if heightLimit <= 0 {
		return "bestvideo+bestaudio/best"
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", heightLimit, heightLimit)
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fn(scanner.Text())
	}
}

// progressLineRe matches lines like:
// [download]  42.0% of ~10.00MiB at  1.20MiB/s ETA 00:08
var progressLineRe = regexp.MustCompile(`\[download\]\s+([\d.]+)% of\s+~?([\d.]+)(\wi?B) at\s+([\d.]+)(\wi?B)/s ETA (\d+:\d+(?::\d+)?)`)

func parseProgressLine(line string) (Progress, bool) {
	m := progressLineRe.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}

	pct, _ := strconv.ParseFloat(m[1], 64)
	totalSize, _ := strconv.ParseFloat(m[2], 64)
	speed, _ := strconv.ParseFloat(m[4], 64)

	p := Progress{
		Percentage:    pct,
		DownloadedBPS: int64(totalSize * pct / 100 * unitMultiplier(m[3])),
		SpeedBPS:      speed * unitMultiplier(m[5]),
		ETASeconds:    parseETA(m[6]),
	}
	return p, true
}

// unitMultiplier converts a size unit suffix to a byte multiplier.
// Binary units (KiB/MiB/GiB) use base 1024; decimal units (KB/MB/GB)
// use base 1000, matching how the helper itself distinguishes them.
func unitMultiplier(unit string) float64 {
	switch unit {
	case "KiB":
		return 1024
	case "MiB":
		return 1024 * 1024
	case "GiB":
		return 1024 * 1024 * 1024
	case "KB":
		return 1000
	case "MB":
		return 1000 * 1000
	case "GB":
		return 1000 * 1000 * 1000
	case "B":
		return 1
	default:
		return 1
	}
}

func parseETA(s string) int64 {
	parts := strings.Split(s, ":")
	var secs int64
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0
		}
		secs = secs*60 + n
	}
	return secs
}

// outputPathPatterns cover the lines the helper emits when it knows the
// final destination: a completed merge, a plain download destination,
// or a skip because the file already exists.
var outputPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[Merger\] Merging formats into "(.+)"`),
	regexp.MustCompile(`\[download\] Destination: (.+)`),
	regexp.MustCompile(`\[download\] (.+) has already been downloaded`),
}

func extractOutputPath(line string) (string, bool) {
	for _, re := range outputPathPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Package telemetry wraps log/slog with the call sites the rest of
// this module reaches for: one log line per job-lifecycle transition
// and per external-process invocation, structured instead of ad hoc
// printf-style messages.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New builds a slog.Logger writing JSON lines to w. Native-messaging
// hosts must never write logs to stdout, since stdout carries the
// framed protocol to the browser; callers wire this to stderr or a
// log file.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Default returns a logger writing to stderr at Info level, suitable
// for cmd/grabkitd's startup before config has been loaded.
func Default() *slog.Logger {
	return New(os.Stderr, slog.LevelInfo)
}

// JobFields returns the structured fields every job-lifecycle log line
// carries: job id and current status.
func JobFields(jobID, status string) []any {
	return []any{"jobId", jobID, "status", status}
}

// LogJobTransition logs a job's status change at Info level.
func LogJobTransition(ctx context.Context, log *slog.Logger, jobID string, from, to string) {
	log.InfoContext(ctx, "job status transition", "jobId", jobID, "from", from, "to", to)
}

// LogHelperInvocation logs the launch of an external process (ffmpeg,
// the extractor helper) at Debug level, since these fire once per
// segment merge or per download and would otherwise flood Info.
func LogHelperInvocation(ctx context.Context, log *slog.Logger, name string, args []string) {
	log.DebugContext(ctx, "invoking external process", "process", name, "args", args)
}

// Package scheduler runs download jobs under a bounded concurrency
// limit, dispatching each to the execution path for its stream type
// and reporting progress, completion, and failure through
// caller-supplied event sinks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/encoder"
	"github.com/grabkit/companion/internal/helper"
	"github.com/grabkit/companion/internal/model"
	"github.com/grabkit/companion/internal/telemetry"
)

const defaultMaxConcurrent = 3

// Sinks are the caller's notification hooks. Any may be nil.
type Sinks struct {
	OnProgress func(model.DownloadJob)
	OnComplete func(model.DownloadJob)
	OnError    func(model.DownloadJob)
}

// Scheduler owns the job table and enforces MaxConcurrent in-flight
// executions across all job types.
type Scheduler struct {
	DownloadPath  string
	MaxConcurrent int

	fetcher Fetcher
	enc     *encoder.Encoder // nil: fall back to raw concatenation where allowed
	hlp     *helper.Handler  // nil: ytdlp-type streams cannot be handled

	sinks Sinks
	log   *slog.Logger // nil is valid: logging is best-effort

	mu   sync.RWMutex
	jobs map[string]*jobEntry
	sem  chan struct{}
}

// SetLogger attaches a logger for job-lifecycle events. Safe to call
// once after New; nil disables logging.
func (s *Scheduler) SetLogger(log *slog.Logger) {
	s.log = log
}

type jobEntry struct {
	job    *model.DownloadJob
	cancel context.CancelFunc
	queued bool // true while pending and not yet handed to a worker goroutine
}

// New builds a Scheduler. enc and hlp may be nil when the corresponding
// external tool was not discovered at startup; jobs that need them then
// fail with a descriptive error rather than panicking.
func New(downloadPath string, maxConcurrent int, fetcher Fetcher, enc *encoder.Encoder, hlp *helper.Handler, sinks Sinks) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Scheduler{
		DownloadPath:  downloadPath,
		MaxConcurrent: maxConcurrent,
		fetcher:       fetcher,
		enc:           enc,
		hlp:           hlp,
		sinks:         sinks,
		jobs:          make(map[string]*jobEntry),
		sem:           make(chan struct{}, maxConcurrent),
	}
}

// StartDownload allocates a job in pending, enqueues it, and returns its
// ID immediately. DRM-marked streams are refused synchronously.
func (s *Scheduler) StartDownload(stream model.DetectedStream, quality model.VideoQuality, audio *model.AudioTrack) (string, error) {
	job := &model.DownloadJob{
		ID:        newJobID(),
		Stream:    stream,
		Quality:   quality,
		Audio:     audio,
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	}

	if stream.IsDRM() {
		job.Status = model.StatusFailed
		job.Error = apperr.ErrDRMRefused.Error()
		job.CompletedAt = time.Now()
		s.mu.Lock()
		s.jobs[job.ID] = &jobEntry{job: job}
		s.mu.Unlock()
		s.notifyError(*job)
		return job.ID, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	entry := &jobEntry{job: job, cancel: cancel, queued: true}

	s.mu.Lock()
	s.jobs[job.ID] = entry
	s.mu.Unlock()

	go s.runQueued(ctx, entry)

	return job.ID, nil
}

// CancelDownload signals the job's cancellation token. If the job is
// still pending it is marked cancelled immediately; if active, the
// running task observes ctx.Done() at its next await point. Idempotent.
func (s *Scheduler) CancelDownload(jobID string) error {
	s.mu.Lock()
	entry, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("job not found: %s", jobID)
	}
	if entry.job.Status.IsTerminal() {
		s.mu.Unlock()
		return nil
	}
	wasQueued := entry.queued
	if wasQueued {
		entry.job.Status = model.StatusCancelled
		entry.job.CompletedAt = time.Now()
	}
	job := *entry.job
	cancel := entry.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasQueued {
		s.notifyProgress(job)
	}
	return nil
}

// GetDownloads returns a snapshot of every known job, including those in
// a terminal state, retained for the lifetime of the process.
func (s *Scheduler) GetDownloads() []model.DownloadJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.DownloadJob, 0, len(s.jobs))
	for _, entry := range s.jobs {
		out = append(out, *entry.job)
	}
	return out
}

// runQueued waits for a concurrency slot, then executes the job. It
// checks for a cancellation that arrived while queued before consuming
// a slot.
func (s *Scheduler) runQueued(ctx context.Context, entry *jobEntry) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-s.sem }()

	s.mu.Lock()
	if entry.job.Status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	entry.queued = false
	entry.job.Status = model.StatusDownloading
	job := *entry.job
	s.mu.Unlock()
	s.logTransition(job.ID, model.StatusPending, model.StatusDownloading)
	s.notifyProgress(job)

	s.execute(ctx, entry)
}

func (s *Scheduler) execute(ctx context.Context, entry *jobEntry) {
	var err error
	switch entry.job.Stream.Type {
	case model.StreamTypeHLS:
		err = s.runHLS(ctx, entry)
	case model.StreamTypeDASH:
		err = s.runDASH(ctx, entry)
	case model.StreamTypeDirect:
		err = s.runDirect(ctx, entry)
	case model.StreamTypeYTDLP:
		err = s.runYTDLP(ctx, entry)
	default:
		err = fmt.Errorf("unsupported stream type: %s", entry.job.Stream.Type)
	}

	s.finish(entry, err)
}

func (s *Scheduler) finish(entry *jobEntry, err error) {
	s.mu.Lock()
	if entry.job.Status.IsTerminal() {
		s.mu.Unlock()
		return
	}

	switch {
	case err == nil:
		entry.job.Status = model.StatusCompleted
		entry.job.Progress.Percentage = 100
	case isAborted(err):
		entry.job.Status = model.StatusCancelled
	default:
		entry.job.Status = model.StatusFailed
		entry.job.Error = err.Error()
	}
	entry.job.CompletedAt = time.Now()
	job := *entry.job
	s.mu.Unlock()

	s.logTransition(job.ID, model.StatusDownloading, job.Status)
	switch job.Status {
	case model.StatusCompleted:
		s.notifyComplete(job)
	case model.StatusCancelled:
		s.notifyProgress(job)
	default:
		s.notifyError(job)
	}
}

func (s *Scheduler) logTransition(jobID string, from, to model.DownloadStatus) {
	if s.log == nil {
		return
	}
	telemetry.LogJobTransition(context.Background(), s.log, jobID, string(from), string(to))
}

func isAborted(err error) bool {
	return err != nil && (errors.Is(err, apperr.ErrAborted) || errors.Is(err, context.Canceled))
}

func (s *Scheduler) updateProgress(entry *jobEntry, p model.DownloadProgress) {
	s.mu.Lock()
	if entry.job.Status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	entry.job.Progress = p.Clamp()
	job := *entry.job
	s.mu.Unlock()
	s.notifyProgress(job)
}

func (s *Scheduler) notifyProgress(job model.DownloadJob) {
	if s.sinks.OnProgress != nil {
		s.sinks.OnProgress(job)
	}
}

func (s *Scheduler) notifyComplete(job model.DownloadJob) {
	if s.sinks.OnComplete != nil {
		s.sinks.OnComplete(job)
	}
}

func (s *Scheduler) notifyError(job model.DownloadJob) {
	if s.sinks.OnError != nil {
		s.sinks.OnError(job)
	}
}

func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("job-%d", time.Now().UnixNano())
	}
	return id.String()
}

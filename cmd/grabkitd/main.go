// Command grabkitd is the native-messaging host launched by the browser
// extension. It speaks the length-prefixed JSON protocol over stdin and
// stdout, and drives the download scheduler in-process.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/grabkit/companion/internal/config"
	"github.com/grabkit/companion/internal/encoder"
	"github.com/grabkit/companion/internal/fetch"
	"github.com/grabkit/companion/internal/helper"
	"github.com/grabkit/companion/internal/model"
	"github.com/grabkit/companion/internal/nativemsg"
	"github.com/grabkit/companion/internal/scheduler"
	"github.com/grabkit/companion/internal/telemetry"
)

const engineVersion = "1.0.0"

const fetchTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the settings YAML file")
	flag.Parse()

	log := telemetry.Default()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(settings.GetDownloadDir(), 0o755); err != nil {
		log.Error("failed to create download directory", "err", err)
		os.Exit(1)
	}

	discoverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	enc, err := encoder.Discover(discoverCtx, settings.GetEncoderPath())
	cancel()
	if err != nil {
		log.Warn("encoder not available, DASH downloads and HLS remuxing will fail", "err", err)
		enc = nil
	} else {
		enc.SetLogger(log)
	}

	var hlp *helper.Handler
	if path := settings.GetHelperPath(); path != "" {
		hlp = helper.New(path)
		hlp.SetLogger(log)
	}

	fetcher := fetch.New(fetchTimeout)
	codec := nativemsg.New(os.Stdin, os.Stdout)

	sched := scheduler.New(settings.GetDownloadDir(), settings.GetMaxConcurrent(), fetcher, enc, hlp, scheduler.Sinks{
		OnProgress: func(j model.DownloadJob) { sendProgress(codec, log, j) },
		OnComplete: func(j model.DownloadJob) { sendComplete(codec, log, j) },
		OnError:    func(j model.DownloadJob) { sendError(codec, log, j) },
	})
	sched.SetLogger(log)

	log.Info("grabkitd starting", "version", engineVersion, "downloadDir", settings.GetDownloadDir(), "maxConcurrent", settings.GetMaxConcurrent())

	err = codec.Loop(
		func(raw []byte) error { return handleFrame(codec, sched, log, raw) },
		func(err error) { log.Warn("malformed frame", "err", err) },
	)
	if err != nil {
		log.Error("transport loop exited", "err", err)
		os.Exit(1)
	}
}

func handleFrame(codec *nativemsg.Codec, sched *scheduler.Scheduler, log *slog.Logger, raw []byte) error {
	msg, err := nativemsg.Decode(raw)
	if err != nil {
		log.Warn("failed to decode frame", "err", err)
		return nil
	}

	switch m := msg.(type) {
	case *model.PingMessage:
		pong := model.NewPong(now(), engineVersion)
		return codec.Send(&pong)

	case *model.DownloadRequestMessage:
		id, err := sched.StartDownload(m.Stream, m.Quality, m.Audio)
		if err != nil {
			log.Error("failed to start download", "err", err)
			return nil
		}
		log.Info("download started", "jobId", id, "sourceUrl", m.Stream.SourceURL)

	case *model.DownloadCancelMessage:
		if err := sched.CancelDownload(m.JobID); err != nil {
			log.Warn("cancel failed", "jobId", m.JobID, "err", err)
		}

	case *model.GetDownloadsMessage:
		list := model.NewDownloadsList(now(), sched.GetDownloads())
		return codec.Send(&list)

	default:
		log.Debug("unhandled message type", "type", msg.Kind())
	}
	return nil
}

func sendProgress(codec *nativemsg.Codec, log *slog.Logger, j model.DownloadJob) {
	msg := model.NewDownloadProgress(now(), j.ID, j.Progress, j.Status)
	if err := codec.Send(&msg); err != nil {
		log.Warn("failed to send progress", "jobId", j.ID, "err", err)
	}
}

func sendComplete(codec *nativemsg.Codec, log *slog.Logger, j model.DownloadJob) {
	msg := model.NewDownloadComplete(now(), j.ID, j.OutputPath)
	if err := codec.Send(&msg); err != nil {
		log.Warn("failed to send completion", "jobId", j.ID, "err", err)
	}
}

func sendError(codec *nativemsg.Codec, log *slog.Logger, j model.DownloadJob) {
	msg := model.NewDownloadError(now(), j.ID, j.Error)
	if err := codec.Send(&msg); err != nil {
		log.Warn("failed to send error", "jobId", j.ID, "err", err)
	}
}

func now() int64 {
	return time.Now().UnixMilli()
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "grabkitd.yaml"
	}
	return filepath.Join(dir, "grabkit", "settings.yaml")
}

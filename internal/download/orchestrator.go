package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/folders"
	"github.com/clipkeep/clipkeep/internal/library"
	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
	"github.com/clipkeep/clipkeep/internal/probe"
	"github.com/clipkeep/clipkeep/internal/transcode"
)

// Progress reporting
const (
	ProgressInterval = 500 * time.Millisecond

	// Audio jobs split the progress bar between the two phases so the
	// percentage never goes backwards when extraction starts.
	AudioDownloadSpan = 70
)

// StagingDirPattern is the temp directory created under the content root for
// in-flight downloads. Files only move into a library folder once complete.
const StagingDirPattern = ".staging-*"

// AudioFormatSelector picks the best audio-only stream, falling back to a
// muxed one.
const AudioFormatSelector = "bestaudio/best"

// Orchestrator owns the singleton download job. Start is non-blocking: it
// validates the request, flips the job to starting and returns; the work runs
// in a goroutine whose state is read through Snapshot.
type Orchestrator struct {
	prober     probe.Prober
	lib        *library.Catalog
	folders    *folders.Manager
	transcoder *transcode.Service
	cfg        *config.Store

	mu     sync.RWMutex
	snap   model.JobSnapshot
	active bool
	cancel context.CancelFunc

	// progress mapping for the current phase
	base int
	span int

	// run is swapped out in tests to observe lifecycle without yt-dlp
	run func(ctx context.Context, req model.DownloadRequest)
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(cfg *config.Store, prober probe.Prober, lib *library.Catalog, mgr *folders.Manager, transcoder *transcode.Service) *Orchestrator {
	o := &Orchestrator{
		prober:     prober,
		lib:        lib,
		folders:    mgr,
		transcoder: transcoder,
		cfg:        cfg,
		snap:       model.JobSnapshot{Status: model.JobStatusIdle},
	}
	o.run = o.execute
	return o
}

// Start validates a request and launches the job. It fails fast on malformed
// input and when a job is already running; source-side failures surface later
// through the snapshot.
func (o *Orchestrator) Start(req model.DownloadRequest) error {
	req.URL = strings.TrimSpace(req.URL)
	if !platform.IsSupportedURL(req.URL) {
		return errors.Wrapf(model.ErrInvalidURL, "%q", req.URL)
	}
	switch req.Type {
	case model.DownloadTypeVideo:
		if req.Resolution == "" {
			req.Resolution = probe.FallbackResolution
		}
		if !probe.InLadder(req.Resolution) {
			return errors.Wrapf(model.ErrUnsupportedFormat, "resolution %q", req.Resolution)
		}
	case model.DownloadTypeAudio:
		if !transcode.IsSupportedBitrate(req.Bitrate) {
			return errors.Wrapf(model.ErrUnsupportedFormat, "bitrate %d", req.Bitrate)
		}
	default:
		return errors.Wrapf(model.ErrUnsupportedFormat, "type %q", req.Type)
	}
	if !o.cfg.IsConfigured() {
		return model.ErrUnconfigured
	}
	if req.Folder == "" {
		req.Folder = o.cfg.DefaultFolder()
	}
	if !o.folders.Exists(req.Folder) {
		return errors.Wrapf(model.ErrNotFound, "folder %q", req.Folder)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active {
		return model.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.active = true
	o.cancel = cancel
	o.base = 0
	o.span = 100
	o.snap = model.JobSnapshot{
		JobID:  uuid.NewString(),
		Status: model.JobStatusStarting,
	}

	go o.run(ctx, req)
	return nil
}

// Snapshot returns a copy of the current job state. After a job finishes the
// terminal snapshot stays available until the next Start.
func (o *Orchestrator) Snapshot() model.JobSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snap
}

// Cancel aborts the running job. It reports false when no job is active.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active || o.cancel == nil {
		return false
	}
	o.cancel()
	return true
}

// execute is the job body: probe, download into staging, optionally extract
// audio, then finalize into the target folder and record the catalog entry.
func (o *Orchestrator) execute(ctx context.Context, req model.DownloadRequest) {
	defer o.finish()

	info, err := o.prober.Probe(ctx, req.URL)
	if err != nil {
		o.fail(ctx, err)
		return
	}
	if req.Type == model.DownloadTypeVideo && !resolutionOffered(info, req.Resolution) {
		o.fail(ctx, errors.Wrapf(model.ErrUnsupportedFormat, "source does not offer %s", req.Resolution))
		return
	}
	o.setFilename(info.Title)

	root := o.cfg.ContentRoot()
	staging, err := os.MkdirTemp(root, StagingDirPattern)
	if err != nil {
		o.fail(ctx, errors.Wrap(err, "create staging dir"))
		return
	}
	defer os.RemoveAll(staging)

	if req.Type == model.DownloadTypeAudio {
		o.setPhase(model.JobStatusDownloading, 0, AudioDownloadSpan)
	} else {
		o.setPhase(model.JobStatusDownloading, 0, 100)
	}

	dl := ytdlp.New().
		ForceOverwrites().
		Output(staging + "/%(title)s.%(ext)s")
	if req.Type == model.DownloadTypeVideo {
		dl = dl.
			Format(videoFormatSelector(req.Resolution)).
			MergeOutputFormat("mp4")
	} else {
		dl = dl.Format(AudioFormatSelector)
	}
	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		o.onProgress(&update)
	})

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		// Partial artifacts are gone before the terminal state is visible
		os.RemoveAll(staging)
		o.fail(ctx, errors.Wrap(model.ErrJobFailed, err.Error()))
		return
	}

	downloaded, err := locateOutput(result, staging)
	if err != nil {
		o.fail(ctx, err)
		return
	}

	kind := model.FileKindVideo
	if req.Type == model.DownloadTypeAudio {
		kind = model.FileKindAudio
		o.setPhase(model.JobStatusProcessing, AudioDownloadSpan, 100-AudioDownloadSpan)

		extracted := strings.TrimSuffix(downloaded, filepath.Ext(downloaded)) + ".mp3"
		err := o.transcoder.ExtractAudio(ctx, downloaded, extracted, req.Bitrate, func(percent float64) {
			o.setProgress(int(percent), "")
		})
		if err != nil {
			o.fail(ctx, errors.Wrap(model.ErrJobFailed, err.Error()))
			return
		}
		os.Remove(downloaded)
		downloaded = extracted
	}

	destDir, err := o.folders.Path(req.Folder)
	if err != nil {
		o.fail(ctx, err)
		return
	}
	if err := os.MkdirAll(destDir, platform.DefaultDirPermissions); err != nil {
		o.fail(ctx, errors.Wrap(err, "create target folder"))
		return
	}
	name := platform.SanitizeName(filepath.Base(downloaded))
	destPath := platform.UniquePath(destDir, name)
	if err := os.Rename(downloaded, destPath); err != nil {
		o.fail(ctx, errors.Wrap(err, "finalize file"))
		return
	}

	id := req.MediaID
	if id == "" {
		id = info.ID
	}
	if id == "" {
		id = probe.GenerateIDFromURL(req.URL)
	}
	if _, err := o.lib.AttachFile(ctx, id, kind, filepath.Base(destPath), req.Folder, info); err != nil {
		o.fail(ctx, err)
		return
	}

	o.mu.Lock()
	o.snap.Status = model.JobStatusCompleted
	o.snap.Progress = 100
	o.snap.Filename = filepath.Base(destPath)
	o.snap.ResultPath = destPath
	o.snap.Message = ""
	o.mu.Unlock()
}

// finish clears the active flag, keeping the terminal snapshot for polling
func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.active = false
	if !o.snap.Status.IsTerminal() {
		o.snap.Status = model.JobStatusError
		o.snap.Message = model.ErrJobFailed.Error()
	}
}

// fail records a terminal state: cancelled when the context was cancelled,
// error otherwise.
func (o *Orchestrator) fail(ctx context.Context, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Err() == context.Canceled || errors.Is(err, model.ErrCancelled) {
		o.snap.Status = model.JobStatusCancelled
		o.snap.Message = model.ErrCancelled.Error()
		o.snap.Speed = ""
		return
	}
	o.snap.Status = model.JobStatusError
	o.snap.Message = err.Error()
	o.snap.Speed = ""
}

// setPhase moves to a status and maps subsequent percentages into
// [base, base+span].
func (o *Orchestrator) setPhase(status model.JobStatus, base, span int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap.Status = status
	o.base = base
	o.span = span
}

// setProgress records phase-local progress. The published percentage is
// clamped and never decreases within a job.
func (o *Orchestrator) setProgress(percent int, speed string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	scaled := o.base + percent*o.span/100
	if scaled > o.snap.Progress {
		o.snap.Progress = scaled
	}
	if speed != "" {
		o.snap.Speed = speed
	}
}

func (o *Orchestrator) setFilename(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if name != "" && o.snap.Filename == "" {
		o.snap.Filename = name
	}
}

// onProgress translates yt-dlp progress updates into the snapshot
func (o *Orchestrator) onProgress(update *ytdlp.ProgressUpdate) {
	percent := 0
	if update.TotalBytes > 0 {
		percent = int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
	}
	speed := ""
	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
			speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
		}
	}
	o.setProgress(percent, speed)

	if update.Info != nil && update.Info.Title != nil {
		o.setFilename(*update.Info.Title)
	}
}

// videoFormatSelector builds the yt-dlp format expression for a ladder rung,
// preferring a separate video+audio pair capped at the rung's height.
func videoFormatSelector(resolution string) string {
	height := strings.TrimSuffix(resolution, "p")
	return fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]/best", height, height)
}

// resolutionOffered reports whether the probe result carries the requested
// rung. A missing rung fails the job instead of silently substituting.
func resolutionOffered(info *model.VideoInfo, resolution string) bool {
	for _, f := range info.Formats {
		if f.Resolution == resolution {
			return f.Available
		}
	}
	return false
}

// locateOutput finds the downloaded file: the extractor's reported filename
// when present, otherwise the single media file left in the staging dir.
func locateOutput(result *ytdlp.Result, staging string) (string, error) {
	if result != nil {
		if extracted, err := result.GetExtractedInfo(); err == nil && len(extracted) > 0 {
			if extracted[0].Filename != nil && *extracted[0].Filename != "" {
				path := *extracted[0].Filename
				if _, err := os.Stat(path); err == nil {
					return path, nil
				}
			}
		}
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", errors.Wrap(err, "read staging dir")
	}
	for _, entry := range entries {
		if entry.IsDir() || platform.IsPartialFile(entry.Name()) {
			continue
		}
		return filepath.Join(staging, entry.Name()), nil
	}
	return "", errors.Wrap(model.ErrJobFailed, "no output file produced")
}

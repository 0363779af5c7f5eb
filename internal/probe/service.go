package probe

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
)

// Timeout constants
const (
	DefaultProbeTimeout = 60 * time.Second
)

// External tool constants
const (
	YtdlpCommand = "yt-dlp"
)

// Prober is the read-side interface over the extraction tool. The download
// orchestrator and the library accept this instead of the concrete service so
// tests can substitute a stub.
type Prober interface {
	Probe(ctx context.Context, url string) (*model.VideoInfo, error)
}

// Service probes URLs by invoking yt-dlp with --dump-json. It never writes to
// the filesystem and never touches job state.
type Service struct {
	command string
	timeout time.Duration
}

// NewService creates a prober with the default timeout
func NewService() *Service {
	return &Service{
		command: YtdlpCommand,
		timeout: DefaultProbeTimeout,
	}
}

// SetTimeout sets the timeout applied to each probe invocation
func (s *Service) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// SetCommand overrides the yt-dlp executable path
func (s *Service) SetCommand(command string) {
	s.command = command
}

// Probe fetches metadata for a URL. Invalid input fails fast with
// model.ErrInvalidURL before any subprocess is spawned; extraction failures
// come back wrapped as model.ErrProbeFailed.
func (s *Service) Probe(ctx context.Context, url string) (*model.VideoInfo, error) {
	url = strings.TrimSpace(url)
	if !platform.IsSupportedURL(url) {
		return nil, errors.Wrapf(model.ErrInvalidURL, "%q", url)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command,
		"--dump-json",
		"--no-warnings",
		"--no-playlist",
		"--skip-download",
		url,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		reason := firstLine(stderr.String())
		if reason == "" {
			reason = err.Error()
		}
		return nil, errors.Wrap(model.ErrProbeFailed, reason)
	}

	info, err := parseInfo(stdout.Bytes(), url)
	if err != nil {
		return nil, errors.Wrap(model.ErrProbeFailed, err.Error())
	}
	return info, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "ERROR: ")
}

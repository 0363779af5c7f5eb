// Package transcode wraps the external media transcoder (ffmpeg/ffprobe) for
// the audio-extraction leg of audio downloads. Progress is parsed from
// ffmpeg's machine-readable -progress stream.
package transcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FFmpeg constants for audio extraction
const (
	AudioCodec = "libmp3lame"

	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="
)

// SupportedBitrates is the fixed kbps set offered for audio downloads
var SupportedBitrates = []int{128, 192, 320}

// IsSupportedBitrate reports whether kbps is one of the offered audio bitrates
func IsSupportedBitrate(kbps int) bool {
	for _, b := range SupportedBitrates {
		if b == kbps {
			return true
		}
	}
	return false
}

// ProgressFunc receives extraction progress in the range [0,100]
type ProgressFunc func(percent float64)

// Service drives ffmpeg for audio extraction
type Service struct {
	ffmpegPath  string
	ffprobePath string
}

// NewService creates a transcoder using the ffmpeg/ffprobe binaries on PATH
func NewService() *Service {
	return &Service{
		ffmpegPath:  FFmpegCommand,
		ffprobePath: FFprobeCommand,
	}
}

// SetBinaries overrides the ffmpeg and ffprobe executable paths
func (s *Service) SetBinaries(ffmpeg, ffprobe string) {
	if ffmpeg != "" {
		s.ffmpegPath = ffmpeg
	}
	if ffprobe != "" {
		s.ffprobePath = ffprobe
	}
}

// ExtractAudio transcodes inputPath to an mp3 at outputPath with the given
// bitrate. The partial output is removed on error or cancellation; the
// context cancels the ffmpeg process cooperatively.
func (s *Service) ExtractAudio(ctx context.Context, inputPath, outputPath string, bitrateKbps int, progress ProgressFunc) error {
	if !IsSupportedBitrate(bitrateKbps) {
		return errors.Errorf("unsupported audio bitrate: %d", bitrateKbps)
	}

	// Duration drives percentage; extraction still works without it
	duration, err := s.mediaDuration(ctx, inputPath)
	if err != nil {
		duration = 0
	}

	args := BuildExtractArgs(inputPath, outputPath, bitrateKbps)
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "create stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "start ffmpeg")
	}

	go monitorProgress(stderr, duration, progress)

	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(err, "ffmpeg")
	}
	if ctx.Err() != nil {
		os.Remove(outputPath)
		return ctx.Err()
	}
	if progress != nil {
		progress(100)
	}
	return nil
}

// BuildExtractArgs builds the ffmpeg argument list for mp3 extraction
func BuildExtractArgs(inputPath, outputPath string, bitrateKbps int) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-c:a", AudioCodec,
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-progress", ProgressPipeTarget,
		"-nostats",
		outputPath,
	}
}

// mediaDuration gets the duration of a media file in seconds using ffprobe
func (s *Service) mediaDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		filePath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, errors.Wrap(err, "run ffprobe")
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse duration")
	}
	return duration, nil
}

// monitorProgress reads ffmpeg's progress stream line by line
func monitorProgress(r io.ReadCloser, totalDuration float64, progress ProgressFunc) {
	defer r.Close()
	if progress == nil || totalDuration <= 0 {
		io.Copy(io.Discard, r)
		return
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		percent, ok := ParseProgressLine(scanner.Text(), totalDuration)
		if ok {
			progress(percent)
		}
	}
}

// ParseProgressLine parses one "out_time_us=N" line into a clamped percentage
func ParseProgressLine(line string, totalDuration float64) (float64, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ProgressTimePrefix) {
		return 0, false
	}
	micros, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
	if err != nil || totalDuration <= 0 {
		return 0, false
	}
	percent := float64(micros) / 1e6 / totalDuration * 100
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent, true
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable means the encode/probe tooling is missing. Callers are
	// expected to degrade to a simpler path rather than fail.
	ErrUnavailable = errors.New("media processing unavailable")

	// ErrNoAudio means the source has no audio track. Expected for silent
	// videos, not an error condition.
	ErrNoAudio = errors.New("no audio track")

	// ErrNoData means the encoder produced zero output for the request
	ErrNoData = errors.New("no data produced")
)

// MediaProcessor produces compressed renditions of source media. The ffmpeg
// implementation below is the real one; tests substitute their own.
type MediaProcessor interface {
	Available() bool
	Duration(ctx context.Context, path string) (float64, error)
	// CompressSegment encodes one time window of the source into a
	// temporary file and returns its path. The caller owns the file.
	CompressSegment(ctx context.Context, src string, start, duration float64, index int) (string, error)
	// ExtractAudio records an audio-only sample of the source into a
	// temporary file and returns its path. The caller owns the file.
	ExtractAudio(ctx context.Context, src string) (string, error)
}

const (
	// Fixed per-segment bitrate so output size stays predictable
	// regardless of the source bitrate
	segmentBitrate = "6M"

	// Grace period past the segment duration before a recording is
	// force-stopped and flushed
	segmentGrace = 5 * time.Second

	// Audio extraction samples at most this much of the source. The cap
	// trades transcription fidelity for upload and processing latency.
	audioSampleCap = 30.0
)

type codecChoice struct {
	video string
	audio string
	ext   string
}

// Preference order: modern open codec first, then its predecessor, then the
// widely supported fallback
var codecPreference = []codecChoice{
	{video: "libvpx-vp9", audio: "libopus", ext: "webm"},
	{video: "libvpx", audio: "libopus", ext: "webm"},
	{video: "libx264", audio: "aac", ext: "mp4"},
}

// FFmpeg runs the ffmpeg/ffprobe binaries to implement MediaProcessor
type FFmpeg struct {
	bin      string
	probeBin string

	available bool

	codecOnce sync.Once
	codec     codecChoice
}

func NewFFmpeg() *FFmpeg {
	f := &FFmpeg{
		bin:      viper.GetString("ffmpeg.path"),
		probeBin: viper.GetString("ffprobe.path"),
	}

	if _, err := exec.LookPath(f.bin); err == nil {
		f.available = true
	} else {
		zap.L().Warn("ffmpeg not found, compression and audio extraction disabled", zap.String("path", f.bin))
	}

	return f
}

func (f *FFmpeg) Available() bool {
	return f.available
}

// Duration probes the source's container metadata for its duration in seconds
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	if !f.available {
		return 0, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.probeBin, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "-i", path)

	var stdOut, stdErr bytes.Buffer
	cmd.Stdout = &stdOut
	cmd.Stderr = &stdErr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed, %w (%s)", err, stdErr.String())
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(stdOut.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed duration: %w (%s)", err, stdErr.String())
	}

	return d, nil
}

// pickCodec probes the installed encoders once and caches the best match
// from the preference order
func (f *FFmpeg) pickCodec(ctx context.Context) codecChoice {
	f.codecOnce.Do(func() {
		// Fallback if probing fails entirely
		f.codec = codecPreference[len(codecPreference)-1]

		out, err := exec.CommandContext(ctx, f.bin, "-hide_banner", "-encoders").Output()
		if err != nil {
			zap.L().Warn("Failed to list encoders, assuming baseline codec", zap.Error(err))
			return
		}

		for _, c := range codecPreference {
			if bytes.Contains(out, []byte(c.video)) {
				f.codec = c
				break
			}
		}

		zap.L().Debug("Selected segment codec", zap.String("codec", f.codec.video))
	})

	return f.codec
}

// CompressSegment encodes [start, start+duration) of the source at a fixed
// bitrate. The encode runs against a hard deadline of the segment duration
// plus a grace period; hitting the deadline is the normal termination path
// when the encoder doesn't finish promptly, and whatever was flushed by then
// is returned as the result.
func (f *FFmpeg) CompressSegment(ctx context.Context, src string, start, duration float64, index int) (string, error) {
	if !f.available {
		return "", ErrUnavailable
	}

	codec := f.pickCodec(ctx)

	out, err := os.CreateTemp("", fmt.Sprintf("segment_%d_*.%s", index, codec.ext))
	if err != nil {
		return "", fmt.Errorf("failed to create segment file, %w", err)
	}
	out.Close()

	deadline := time.Duration(duration*float64(time.Second)) + segmentGrace
	cctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	args := []string{
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", src,
		"-c:v", codec.video,
		"-b:v", segmentBitrate,
		"-c:a", codec.audio,
		"-loglevel", "error",
		"-y", out.Name(),
	}

	cmd := exec.CommandContext(cctx, f.bin, args...)
	// Interrupt instead of kill so ffmpeg finalizes the container on the
	// stop-and-flush path
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = segmentGrace

	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	runErr := cmd.Run()

	stat, statErr := os.Stat(out.Name())
	if statErr != nil || stat.Size() == 0 {
		os.Remove(out.Name())

		if runErr != nil {
			return "", fmt.Errorf("segment encode failed, %w (%s)", runErr, stdErr.String())
		}
		return "", ErrNoData
	}

	if runErr != nil && cctx.Err() != context.DeadlineExceeded {
		os.Remove(out.Name())
		return "", fmt.Errorf("segment encode failed, %w (%s)", runErr, stdErr.String())
	}

	return out.Name(), nil
}

// ExtractAudio records an audio-only rendition of the source, capped at
// min(source duration, 30s). This is a sampling extraction for faster
// downstream transcription, not a full-fidelity copy.
func (f *FFmpeg) ExtractAudio(ctx context.Context, src string) (string, error) {
	if !f.available {
		return "", ErrUnavailable
	}

	tracks, err := f.audioTrackCount(ctx, src)
	if err != nil {
		return "", err
	}
	if tracks == 0 {
		return "", ErrNoAudio
	}

	sample := audioSampleCap
	if d, err := f.Duration(ctx, src); err == nil && d < sample {
		sample = d
	}

	out, err := os.CreateTemp("", "audio_*.webm")
	if err != nil {
		return "", fmt.Errorf("failed to create audio file, %w", err)
	}
	out.Close()

	cctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	args := []string{
		"-i", src,
		"-vn",
		"-t", formatSeconds(sample),
		"-c:a", "libopus",
		"-f", "webm",
		"-loglevel", "error",
		"-y", out.Name(),
	}

	var stdErr bytes.Buffer
	cmd := exec.CommandContext(cctx, f.bin, args...)
	cmd.Stderr = &stdErr

	if err := cmd.Run(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("audio extraction failed, %w (%s)", err, stdErr.String())
	}

	if stat, err := os.Stat(out.Name()); err != nil || stat.Size() == 0 {
		os.Remove(out.Name())
		return "", ErrNoData
	}

	return out.Name(), nil
}

func (f *FFmpeg) audioTrackCount(ctx context.Context, src string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.probeBin, "-v", "error", "-select_streams", "a", "-show_entries", "stream=codec_type", "-of", "default=noprint_wrappers=1:nokey=1", "-i", src)

	var stdOut, stdErr bytes.Buffer
	cmd.Stdout = &stdOut
	cmd.Stderr = &stdErr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed, %w (%s)", err, stdErr.String())
	}

	streams := strings.Fields(stdOut.String())
	return len(streams), nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

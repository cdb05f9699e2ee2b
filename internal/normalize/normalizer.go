package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"bytesub/internal/logging"
	"bytesub/internal/media/ffprobe"
	"bytesub/internal/services"
	"bytesub/internal/staging"
)

// Target waveform parameters.
const (
	SampleRateHz = 16000
	Channels     = 1
	BitDepth     = 16
)

const stageName = "normalize"

// Audio is a normalized waveform on disk. It is only valid inside the
// WithAudio callback that produced it.
type Audio struct {
	Path         string
	Source       string
	SampleRateHz int
	Channels     int
	Duration     time.Duration
}

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCommandRunner replaces ffmpeg execution (for testing).
func WithCommandRunner(runner CommandRunner) Option {
	return func(n *Normalizer) {
		if runner != nil {
			n.run = runner
		}
	}
}

// WithProbe replaces ffprobe inspection (for testing).
func WithProbe(probe ProbeFunc) Option {
	return func(n *Normalizer) {
		if probe != nil {
			n.probe = probe
		}
	}
}

// Normalizer produces normalized audio in a work directory.
type Normalizer struct {
	ffmpeg  string
	ffprobe string
	workDir string
	logger  *slog.Logger
	run     CommandRunner
	probe   ProbeFunc
}

// New constructs a Normalizer writing into workDir.
func New(ffmpegBinary, ffprobeBinary, workDir string, logger *slog.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		ffmpeg:  fallback(ffmpegBinary, "ffmpeg"),
		ffprobe: fallback(ffprobeBinary, "ffprobe"),
		workDir: workDir,
		logger:  logging.NewComponentLogger(logger, "normalize"),
		run:     runCommand,
		probe:   ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AudioPath returns the normalized file location for src:
// <work_dir>/temp_<base>.wav where base is src's name without extension.
func (n *Normalizer) AudioPath(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(n.workDir, staging.NormalizedAudioPrefix+base+staging.NormalizedAudioExt)
}

// WithAudio normalizes src, calls fn with the result and removes the
// normalized file afterwards, whether fn succeeds, fails or panics.
// Normalization failures are media decode errors carrying src.
func (n *Normalizer) WithAudio(ctx context.Context, src string, fn func(Audio) error) error {
	logger := logging.WithContext(ctx, n.logger)

	probe, err := n.probe(ctx, n.ffprobe, src)
	if err != nil {
		return services.Wrap(services.ErrMediaDecode, stageName, "probe media", src, err)
	}
	if probe.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrMediaDecode, stageName, "probe media", src, ffprobe.ErrNoAudio)
	}
	if primary, err := probe.PrimaryAudio(); err == nil {
		logger.Debug("source probed",
			logging.String("source", src),
			logging.String("codec", primary.CodecName),
			logging.Int("sample_rate", primary.SampleRateHz()),
			logging.Int("channels", primary.Channels),
			logging.Float64("duration_seconds", probe.DurationSeconds()),
		)
	}

	if err := os.MkdirAll(n.workDir, 0o755); err != nil {
		return services.Wrap(services.ErrMediaDecode, stageName, "prepare work dir", src, err)
	}
	dest := n.AudioPath(src)
	defer n.remove(logger, dest)

	started := time.Now()
	if err := n.run(ctx, n.ffmpeg, buildArgs(src, dest)...); err != nil {
		return services.Wrap(services.ErrMediaDecode, stageName, "transcode audio", src, err)
	}

	audio, err := verify(dest)
	if err != nil {
		return services.Wrap(services.ErrMediaDecode, stageName, "verify audio", src, err)
	}
	audio.Source = src
	logger.Debug("audio normalized",
		logging.String("path", dest),
		logging.Duration("audio_duration", audio.Duration),
		logging.Duration("elapsed", time.Since(started)),
	)
	return fn(audio)
}

func (n *Normalizer) remove(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "failed to remove normalized audio", "normalize_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check work_dir permissions"),
			logging.String(logging.FieldImpact, "stale audio removed on next start"),
		)
	}
}

func buildArgs(src, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRateHz),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// verify checks that path is a mono 16 kHz 16-bit PCM WAV.
func verify(path string) (Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Audio{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Audio{}, errors.New("output is not a valid wav file")
	}
	if int(dec.SampleRate) != SampleRateHz || int(dec.NumChans) != Channels || int(dec.BitDepth) != BitDepth {
		return Audio{}, fmt.Errorf("unexpected wav format: %d Hz, %d channel(s), %d-bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Audio{}, fmt.Errorf("locate wav data chunk: %w", err)
	}
	if dec.PCMChunk == nil {
		return Audio{}, errors.New("wav has no data chunk")
	}
	return Audio{
		Path:         path,
		SampleRateHz: int(dec.SampleRate),
		Channels:     int(dec.NumChans),
		Duration:     pcmDuration(dec.PCMSize, int(dec.SampleRate), int(dec.NumChans), int(dec.BitDepth)),
	}, nil
}

// pcmDuration derives playback length from the data chunk alone; the RIFF
// size also counts the headers.
func pcmDuration(pcmBytes, sampleRate, channels, bitDepth int) time.Duration {
	bytesPerSecond := sampleRate * channels * bitDepth / 8
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(pcmBytes) * time.Second / time.Duration(bytesPerSecond)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

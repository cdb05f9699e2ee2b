package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	langpkg "bytesub/internal/language"
	"bytesub/internal/logging"
	"bytesub/internal/services"
	"bytesub/internal/transcribe"
	"bytesub/internal/transcript"
)

const stageName = "transcribe"

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription. It satisfies transcribe.Engine.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner

	mu sync.Mutex
}

var _ transcribe.Engine = (*Service)(nil)

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = UVXCommand
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BeamSize <= 0 {
		cfg.BeamSize = DefaultBeamSize
	}
	if cfg.VADMethod == "" {
		cfg.VADMethod = VADMethodSilero
	}
	return &Service{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Name identifies the engine and model in logs.
func (s *Service) Name() string {
	return "whisperx/" + s.cfg.Model
}

// Transcribe runs WhisperX on audioPath and returns its segments in order.
func (s *Service) Transcribe(ctx context.Context, audioPath string, directive transcribe.Directive) ([]transcript.Segment, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrTranscription, stageName, "validate input", "", errors.New("audio path required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if root := s.cfg.ScratchRoot; root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, services.Wrap(services.ErrTranscription, stageName, "create scratch dir", audioPath, err)
		}
	}
	scratch, err := os.MkdirTemp(s.cfg.ScratchRoot, "whisperx-")
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, stageName, "create scratch dir", audioPath, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "failed to remove whisperx scratch dir", "whisperx_scratch_cleanup",
				logging.String("path", scratch),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	args := s.buildArgs(audioPath, scratch, directive)
	s.logger.Debug("running whisperx",
		logging.String("audio", audioPath),
		logging.String("model", s.cfg.Model),
		logging.String("task", directive.Task),
		logging.String("language", directive.Language),
	)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return nil, services.Wrap(services.ErrTranscription, stageName, "run whisperx", audioPath, err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	raw, err := LoadSegments(filepath.Join(scratch, base+".json"))
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, stageName, "load whisperx output", audioPath, err)
	}
	segments := make([]transcript.Segment, 0, len(raw))
	for _, seg := range raw {
		segments = append(segments, transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return segments, nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 20))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string, directive transcribe.Directive) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--beam_size", strconv.Itoa(s.cfg.BeamSize),
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
	)

	if task := strings.TrimSpace(directive.Task); task != "" {
		args = append(args, "--task", task)
	}
	if lang := langpkg.ToISO2(directive.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	args = append(args, "--vad_method", s.cfg.VADMethod)
	if s.cfg.VADMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Segment is a transcribed span from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}

func tail(output string, lines int) string {
	parts := strings.Split(strings.TrimSpace(output), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"bytesub/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.Task {
	case TaskTranslate, TaskTranscribe:
	default:
		return fmt.Errorf("engine.task must be %q or %q, got %q", TaskTranslate, TaskTranscribe, c.Engine.Task)
	}
	if _, err := language.Canonical(c.Engine.TargetLanguage); err != nil {
		return fmt.Errorf("engine.target_language: %w", err)
	}
	if strings.TrimSpace(c.Engine.ModelProfile) == "" {
		return errors.New("engine.model_profile must be set")
	}
	if c.Engine.BeamSize <= 0 {
		return errors.New("engine.beam_size must be positive")
	}
	switch c.Engine.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("engine.vad_method must be silero or pyannote, got %q", c.Engine.VADMethod)
	}
	if c.Engine.VADMethod == "pyannote" && c.Engine.HFToken == "" {
		return errors.New("engine.hf_token is required when engine.vad_method is pyannote (or set HF_TOKEN)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

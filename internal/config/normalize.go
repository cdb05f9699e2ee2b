package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Output.Folder) == "" {
		c.Output.Folder = defaultOutputFolder
	}
	if c.Output.Folder, err = expandPath(c.Output.Folder); err != nil {
		return fmt.Errorf("output.folder: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.ModelProfile = strings.TrimSpace(c.Engine.ModelProfile)
	if c.Engine.ModelProfile == "" {
		c.Engine.ModelProfile = defaultModelProfile
	}
	c.Engine.Task = strings.ToLower(strings.TrimSpace(c.Engine.Task))
	if c.Engine.Task == "" {
		c.Engine.Task = defaultTask
	}
	c.Engine.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Engine.TargetLanguage))
	if c.Engine.BeamSize <= 0 {
		c.Engine.BeamSize = defaultBeamSize
	}
	c.Engine.VADMethod = strings.ToLower(strings.TrimSpace(c.Engine.VADMethod))
	if c.Engine.VADMethod == "" {
		c.Engine.VADMethod = defaultVADMethod
	}
	c.Engine.HFToken = strings.TrimSpace(c.Engine.HFToken)
	if c.Engine.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Engine.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Engine.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = fallback(c.Tools.FFmpeg, defaultFFmpegBinary)
	c.Tools.FFprobe = fallback(c.Tools.FFprobe, defaultFFprobeBinary)
	c.Tools.YTDLP = fallback(c.Tools.YTDLP, defaultYTDLPBinary)
	c.Tools.UVX = fallback(c.Tools.UVX, defaultUVXBinary)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}

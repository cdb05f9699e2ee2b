package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"bytesub/internal/acquire"
	"bytesub/internal/config"
	"bytesub/internal/logging"
	"bytesub/internal/normalize"
	"bytesub/internal/services"
	"bytesub/internal/services/whisperx"
	"bytesub/internal/services/ytdlp"
	"bytesub/internal/staging"
	"bytesub/internal/workflow"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", path, err)
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = services.Wrap(services.ErrConfiguration, "config", "apply --log-level", "", err)
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// pipeline bundles the collaborators one invocation builds.
type pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	lock    *staging.Lock
	manager *workflow.Manager
}

func (p *pipeline) Close() {
	if p == nil || p.lock == nil {
		return
	}
	if err := p.lock.Release(); err != nil {
		p.logger.Warn("failed to release work directory lock", logging.Error(err))
	}
}

// buildPipeline takes the work directory lock, clears leftovers from earlier
// runs and constructs the engine once for reuse across every batch.
func (c *commandContext) buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	lock, err := staging.Acquire(cfg.Paths.WorkDir)
	if err != nil {
		if errors.Is(err, staging.ErrLocked) {
			return nil, fmt.Errorf("%w (lock: %s)", err, staging.LockPath(cfg.Paths.WorkDir))
		}
		return nil, err
	}

	staging.CleanStale(ctx, cfg.Paths.WorkDir, 0, logger)
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "*.log*",
		Keep:    []string{logging.LogFileName},
	})

	var downloader acquire.Downloader
	if client, err := ytdlp.New(cfg.Tools.YTDLP); err == nil {
		downloader = client
	}
	acquirer := acquire.New(cfg.Paths.WorkDir, downloader, logger)
	normalizer := normalize.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, cfg.Paths.WorkDir, logger)
	engine := whisperx.NewService(whisperx.Config{
		Binary:      cfg.Tools.UVX,
		Model:       cfg.Engine.ModelProfile,
		BeamSize:    cfg.Engine.BeamSize,
		CUDAEnabled: cfg.Engine.CUDAEnabled,
		VADMethod:   cfg.Engine.VADMethod,
		HFToken:     cfg.Engine.HFToken,
		ScratchRoot: cfg.Paths.WorkDir,
	}, logger)

	return &pipeline{
		cfg:     cfg,
		logger:  logger,
		lock:    lock,
		manager: workflow.NewManager(cfg, acquirer, normalizer, engine, logger),
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

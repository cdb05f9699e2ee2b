package workflow

import (
	"log/slog"
	"sync"

	"bytesub/internal/config"
	"bytesub/internal/logging"
	"bytesub/internal/transcribe"
)

// Manager owns the pipeline collaborators and runs batches through them.
// The engine is constructed once by the caller and reused across batches.
type Manager struct {
	cfg        *config.Config
	acquirer   Fetcher
	normalizer AudioPreparer
	engine     transcribe.Engine
	logger     *slog.Logger

	// runMu serializes batches; the fixed work-dir paths allow one at a time.
	runMu sync.Mutex
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, acquirer Fetcher, normalizer AudioPreparer, engine transcribe.Engine, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		acquirer:   acquirer,
		normalizer: normalizer,
		engine:     engine,
		logger:     logging.NewComponentLogger(logger, "workflow"),
	}
}

// DefaultRunOptions derives batch options from configuration: the configured
// output folder and overwrite policy, engine directives and download retention.
func (m *Manager) DefaultRunOptions() RunOptions {
	opts := RunOptions{Observer: NopObserver{}}
	if m.cfg == nil {
		return opts
	}
	opts.Chooser = NewOutputFolder(m.cfg.Output.Folder, m.cfg.Output.OverwriteExisting)
	opts.Directive = transcribe.Directive{
		Task:     m.cfg.Engine.Task,
		Language: m.cfg.Engine.TargetLanguage,
	}
	opts.KeepDownloadedMedia = m.cfg.Acquire.KeepDownloadedMedia
	return opts
}

func (m *Manager) fillDefaults(opts RunOptions) RunOptions {
	defaults := m.DefaultRunOptions()
	if opts.Observer == nil {
		opts.Observer = defaults.Observer
	}
	if opts.Chooser == nil {
		opts.Chooser = defaults.Chooser
	}
	if opts.Directive.Task == "" {
		opts.Directive.Task = defaults.Directive.Task
	}
	if opts.Directive.Language == "" {
		opts.Directive.Language = defaults.Directive.Language
	}
	return opts
}

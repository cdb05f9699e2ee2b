package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bytesub/internal/acquire"
	"bytesub/internal/config"
	"bytesub/internal/deps"
	"bytesub/internal/language"
	"bytesub/internal/preflight"
	"bytesub/internal/services"
	"bytesub/internal/workflow"
)

type transcribeFlags struct {
	urls         []string
	output       string
	language     string
	task         string
	model        string
	keepDownload bool
	overwrite    bool
	noPreview    bool
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe [file|folder]...",
		Short: "Generate .srt and .txt files for media files, folders and URLs",
		Long: `Transcribe processes every input in order. Folders contribute the media
files directly inside them (.mp4, .mp3, .wav, .mkv, .mov). URLs are fetched
with yt-dlp first. One failed item never stops the batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyTranscribeOverrides(cmd, cfg, flags); err != nil {
				return err
			}

			inputs := acquire.ParseInputs(args)
			for _, raw := range flags.urls {
				if trimmed := strings.TrimSpace(raw); trimmed != "" {
					inputs = append(inputs, acquire.Input{Kind: acquire.KindRemoteURL, Location: trimmed})
				}
			}
			if len(inputs) == 0 {
				return errors.New("no inputs: pass files, folders or --url")
			}

			if err := checkReady(cfg, hasRemote(inputs)); err != nil {
				return err
			}

			p, err := ctx.buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			out := cmd.OutOrStdout()
			observer := newConsoleObserver(out, !flags.noPreview, shouldColorize(out))
			opts := p.manager.DefaultRunOptions()
			opts.Observer = observer

			summary := p.manager.Run(cmd.Context(), inputs, opts)
			return summaryExit(summary)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.urls, "url", "u", nil, "Remote video URL to fetch and transcribe (repeatable)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Override output.folder")
	cmd.Flags().StringVarP(&flags.language, "language", "l", "", "Override engine.target_language")
	cmd.Flags().StringVar(&flags.task, "task", "", "Override engine.task (translate or transcribe)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Override engine.model_profile")
	cmd.Flags().BoolVar(&flags.keepDownload, "keep-download", false, "Keep media fetched from URLs next to the outputs")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replace existing outputs instead of picking a free name")
	cmd.Flags().BoolVar(&flags.noPreview, "no-preview", false, "Do not print the transcript preview after each item")
	return cmd
}

// applyTranscribeOverrides folds explicitly set flags into cfg and
// revalidates it.
func applyTranscribeOverrides(cmd *cobra.Command, cfg *config.Config, flags transcribeFlags) error {
	changed := cmd.Flags().Changed
	if changed("output") {
		folder, err := config.ExpandPath(strings.TrimSpace(flags.output))
		if err != nil {
			return fmt.Errorf("resolve --output: %w", err)
		}
		cfg.Output.Folder = folder
	}
	if changed("language") {
		lang := strings.ToLower(strings.TrimSpace(flags.language))
		if _, err := language.Canonical(lang); err != nil {
			return fmt.Errorf("invalid options: %w", err)
		}
		cfg.Engine.TargetLanguage = lang
	}
	if changed("task") {
		cfg.Engine.Task = strings.ToLower(strings.TrimSpace(flags.task))
	}
	if changed("model") {
		cfg.Engine.ModelProfile = strings.TrimSpace(flags.model)
	}
	if changed("keep-download") {
		cfg.Acquire.KeepDownloadedMedia = flags.keepDownload
	}
	if changed("overwrite") {
		cfg.Output.OverwriteExisting = flags.overwrite
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return cfg.EnsureDirectories()
}

// checkReady fails fast when a directory is unusable or a required tool is
// missing. yt-dlp is only required when the batch contains URLs.
func checkReady(cfg *config.Config, needDownloader bool) error {
	if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, r := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
	}

	statuses := preflight.CheckSystemDeps(cfg)
	missing := deps.Missing(statuses)
	if needDownloader {
		for _, s := range statuses {
			if s.Optional && !s.Available {
				missing = append(missing, s)
			}
		}
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, s := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
		}
		return services.Wrap(services.ErrExternalTool, "preflight", "check dependencies", "",
			fmt.Errorf("missing dependencies: %s", strings.Join(names, ", ")))
	}
	return nil
}

func hasRemote(inputs []acquire.Input) bool {
	for _, in := range inputs {
		if in.Kind == acquire.KindRemoteURL {
			return true
		}
	}
	return false
}

// summaryExit maps a finished batch to the process exit status. The summary
// has already been printed, so the error carries no message of its own.
func summaryExit(summary workflow.Summary) error {
	switch {
	case summary.Cancelled:
		return &exitError{code: 130, msg: summary.Status()}
	case summary.FailedCount() > 0:
		return &exitError{code: 1, msg: summary.Status()}
	default:
		return nil
	}
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bytesub/internal/config"
	"bytesub/internal/watch"
	"bytesub/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var settle time.Duration
	var output string

	cmd := &cobra.Command{
		Use:   "watch <folder>",
		Short: "Transcribe media files as they appear in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				folder, err := config.ExpandPath(strings.TrimSpace(output))
				if err != nil {
					return fmt.Errorf("resolve --output: %w", err)
				}
				cfg.Output.Folder = folder
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve folder: %w", err)
			}
			if err := checkReady(cfg, false); err != nil {
				return err
			}

			p, err := ctx.buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			observer := newConsoleObserver(out, true, colorize)
			w := watch.New(dir, p.manager, watch.Options{
				Settle: settle,
				RunOptions: func() workflow.RunOptions {
					opts := p.manager.DefaultRunOptions()
					opts.Observer = observer
					return opts
				},
			}, p.logger)

			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)
			if err := w.Watch(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Stopped watching.")
			return nil
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "How long a new file's size must stay unchanged before it is processed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Override output.folder")
	return cmd
}

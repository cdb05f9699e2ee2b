package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bytesub/internal/logging"
	"bytesub/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the bytesub log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter.Level = strings.ToLower(strings.TrimSpace(filter.Level))
			var match func(string) bool
			if !filter.Empty() {
				match = filter.Match
			}
			out := cmd.OutOrStdout()
			return logs.Tail(cmd.Context(), filepath.Join(cfg.Paths.LogDir, logging.LogFileName), logs.TailOptions{
				Lines:  lines,
				Follow: follow,
				Match:  match,
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines as they are written")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only lines from the batch with this run id")
	cmd.Flags().IntVar(&filter.Item, "item", 0, "Only lines for this 1-based batch position")
	cmd.Flags().StringVar(&filter.Level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only lines containing this text")
	return cmd
}

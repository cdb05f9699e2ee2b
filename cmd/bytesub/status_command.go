package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bytesub/internal/deps"
	"bytesub/internal/language"
	"bytesub/internal/preflight"
	"bytesub/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dependency, directory and work directory status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines,
				renderStatusLine("Config", statusInfo, ctx.configPath, colorize),
				renderStatusLine("Output folder", statusInfo, cfg.Output.Folder, colorize),
				renderStatusLine("Engine", statusInfo, fmt.Sprintf("%s, task=%s, language=%s",
					cfg.Engine.ModelProfile, cfg.Engine.Task, language.DisplayName(cfg.Engine.TargetLanguage)), colorize),
				renderStatusLine("Keep downloads", statusInfo, yesNo(cfg.Acquire.KeepDownloadedMedia), colorize),
			)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cfg), colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, r := range preflight.RunAll(cfg) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Work directory", colorize)...)
			lines = append(lines, workDirLines(cfg.Paths.WorkDir, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
			if dep.Description != "" {
				detail = fmt.Sprintf("%s (%s)", detail, strings.ToLower(dep.Description))
			}
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		if !dep.Optional {
			missing = append(missing, dep.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func workDirLines(workDir string, colorize bool) []string {
	lines := []string{renderStatusLine("Path", statusInfo, workDir, colorize)}

	held, err := staging.Held(workDir)
	switch {
	case err != nil:
		lines = append(lines, renderStatusLine("Lock", statusWarn, err.Error(), colorize))
	case held:
		lines = append(lines, renderStatusLine("Lock", statusWarn, "held by a running bytesub process", colorize))
	default:
		lines = append(lines, renderStatusLine("Lock", statusOK, "free", colorize))
	}

	artifacts, err := staging.ListArtifacts(workDir)
	if err != nil {
		return append(lines, renderStatusLine("Artifacts", statusWarn, err.Error(), colorize))
	}
	if len(artifacts) == 0 {
		return append(lines, renderStatusLine("Artifacts", statusOK, "none", colorize))
	}
	rows := make([][]string, 0, len(artifacts))
	for _, a := range artifacts {
		rows = append(rows, []string{a.Name, fmt.Sprintf("%d", a.Size), a.ModTime.Format("2006-01-02 15:04:05")})
	}
	lines = append(lines, renderStatusLine("Artifacts", statusWarn, fmt.Sprintf("%d left over (removed on next run)", len(artifacts)), colorize))
	lines = append(lines, renderTable([]string{"Name", "Bytes", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	return lines
}

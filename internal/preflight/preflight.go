package preflight

import (
	"bytesub/internal/config"
	"bytesub/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config. The work
// directory and output folder must both be writable before a batch starts.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output folder", cfg.Output.Folder),
	}
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckSystemDeps evaluates the external executables for the given config.
// yt-dlp is optional: only URL inputs need it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for audio normalization",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for media inspection",
		},
		{
			Name:        "uvx",
			Command:     cfg.Tools.UVX,
			Description: "Required to run WhisperX",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YTDLP,
			Description: "Required for URL inputs",
			Optional:    true,
		},
	})
}

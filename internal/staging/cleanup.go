package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bytesub/internal/logging"
)

// Work directory artifact names. Normalized audio lives at
// temp_<base>.wav and remote media is fetched to downloaded_media.mp4.
const (
	NormalizedAudioPrefix = "temp_"
	NormalizedAudioExt    = ".wav"
	DownloadBaseName      = "downloaded_media"
	DownloadFileName      = DownloadBaseName + ".mp4"
)

// CleanStaleResult contains the outcome of a stale artifact cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// IsArtifact reports whether name is a transient file the pipeline owns.
func IsArtifact(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, NormalizedAudioPrefix) && strings.HasSuffix(lower, NormalizedAudioExt) {
		return true
	}
	// yt-dlp leaves .part and .ytdl files next to the target on interruption.
	return strings.HasPrefix(lower, DownloadBaseName+".")
}

// CleanStale removes pipeline artifacts older than maxAge from workDir. A zero
// maxAge removes every artifact; callers must hold the work directory lock.
func CleanStale(ctx context.Context, workDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return result
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: workDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() || !IsArtifact(entry.Name()) {
			continue
		}

		path := filepath.Join(workDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if maxAge > 0 && !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale work artifact",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "staging_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check work_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed stale work artifact",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}

	return result
}

// ArtifactInfo contains metadata about a leftover work directory file.
type ArtifactInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListArtifacts returns the pipeline artifacts currently in workDir.
func ListArtifacts(workDir string) ([]ArtifactInfo, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []ArtifactInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, ArtifactInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(workDir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return out, nil
}

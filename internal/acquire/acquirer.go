package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bytesub/internal/logging"
	"bytesub/internal/services"
	"bytesub/internal/services/ytdlp"
	"bytesub/internal/staging"
)

const stageName = "acquire"

// Downloader fetches a remote URL into dest.
type Downloader interface {
	Download(ctx context.Context, url, dest string, progress func(ytdlp.Progress)) error
}

// Acquired is a media item available on local disk.
type Acquired struct {
	Input Input
	Path  string
	// Downloaded marks files fetched into the work directory. The caller owns
	// their retention or deletion.
	Downloaded bool
}

// Acquirer makes batch items available locally.
type Acquirer struct {
	workDir    string
	downloader Downloader
	logger     *slog.Logger
}

// New constructs an Acquirer. downloader may be nil when remote inputs are
// not expected; fetching a URL then fails with an acquisition error.
func New(workDir string, downloader Downloader, logger *slog.Logger) *Acquirer {
	return &Acquirer{
		workDir:    workDir,
		downloader: downloader,
		logger:     logging.NewComponentLogger(logger, "acquire"),
	}
}

// DownloadPath is the fixed location remote media is fetched to.
func (a *Acquirer) DownloadPath() string {
	return filepath.Join(a.workDir, staging.DownloadFileName)
}

// Fetch returns a local path for in. Remote inputs are downloaded to
// DownloadPath; on failure no file is left behind.
func (a *Acquirer) Fetch(ctx context.Context, in Input) (Acquired, error) {
	if err := validate(in); err != nil {
		return Acquired{}, services.Wrap(services.ErrAcquisition, stageName, "validate input", in.Location, err)
	}

	if in.Kind == KindLocalFile {
		info, err := os.Stat(in.Location)
		if err != nil {
			return Acquired{}, services.Wrap(services.ErrAcquisition, stageName, "stat input", in.Location, err)
		}
		if info.IsDir() {
			return Acquired{}, services.Wrap(services.ErrAcquisition, stageName, "stat input", in.Location, errors.New("is a directory"))
		}
		return Acquired{Input: in, Path: in.Location}, nil
	}

	if a.downloader == nil {
		return Acquired{}, services.Wrap(services.ErrAcquisition, stageName, "download", in.Location, errors.New("no downloader configured"))
	}
	if err := os.MkdirAll(a.workDir, 0o755); err != nil {
		return Acquired{}, services.Wrap(services.ErrAcquisition, stageName, "prepare work dir", a.workDir, err)
	}

	dest := a.DownloadPath()
	logger := logging.WithContext(ctx, a.logger)
	logger.Info("downloading remote media",
		logging.String("url", in.Location),
		logging.String("dest", dest),
		logging.String(logging.FieldEventType, "download_started"),
	)
	lastDecile := -1
	progress := func(p ytdlp.Progress) {
		if decile := int(p.Percent) / 10; decile > lastDecile {
			lastDecile = decile
			logger.Debug("download progress", logging.Float64("percent", p.Percent))
		}
	}
	if err := a.downloader.Download(ctx, in.Location, dest, progress); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("remove partial download: %w", rmErr))
		}
		return Acquired{}, services.Wrap(services.ErrAcquisition, stageName, "download", in.Location, err)
	}
	logger.Info("download complete",
		logging.String("path", dest),
		logging.String(logging.FieldEventType, "download_completed"),
	)
	return Acquired{Input: in, Path: dest, Downloaded: true}, nil
}

package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bytesub/internal/acquire"
	"bytesub/internal/fileutil"
	"bytesub/internal/logging"
	"bytesub/internal/normalize"
	"bytesub/internal/services"
	"bytesub/internal/subtitles"
	"bytesub/internal/transcript"
)

// keptMediaName is the base name for retained downloads whose item failed
// before a name could be derived.
const keptMediaName = "downloaded_media"

type workItem struct {
	input acquire.Input
	err   error
}

// Run processes inputs sequentially and returns the batch summary. Folder
// inputs are expanded first so the total is known before any work starts.
// Individual failures never stop the batch. Cancelling ctx stops the batch
// before the next item; the item in flight runs to completion.
func (m *Manager) Run(ctx context.Context, inputs []acquire.Input, opts RunOptions) Summary {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	opts = m.fillDefaults(opts)
	started := time.Now()
	summary := Summary{RunID: uuid.NewString()}

	ctx = services.WithRequestID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, m.logger)

	items := expandInputs(inputs)
	summary.Total = len(items)
	logger.Info("batch started",
		logging.Int(logging.FieldItemCount, summary.Total),
		logging.String("engine", m.engineName()),
		logging.String("task", opts.Directive.Task),
		logging.String("language", opts.Directive.Language),
		logging.String(logging.FieldEventType, "batch_start"),
	)
	opts.Observer.Progress(0, summary.Total)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			summary.Cancelled = true
			logger.Info("batch cancelled",
				logging.Int("remaining", summary.Total-i),
				logging.String(logging.FieldEventType, "batch_cancelled"),
			)
			break
		}
		index := i + 1
		itemCtx := services.WithItemIndex(context.WithoutCancel(ctx), index)
		opts.Observer.ItemStarted(index, summary.Total, item.input)

		outcome := ItemOutcome{Index: index, Input: item.input, Err: item.err}
		var preview string
		if outcome.Err == nil {
			preview, outcome = m.processItem(itemCtx, outcome, opts)
		}

		summary.Items = append(summary.Items, outcome)
		summary.Completed++
		if outcome.Failed() {
			m.logItemFailure(itemCtx, outcome)
			opts.Observer.ItemFailed(index, summary.Total, item.input, outcome.Err)
		} else {
			opts.Observer.ItemFinished(index, summary.Total, item.input, preview)
		}
		opts.Observer.Progress(summary.Completed, summary.Total)
	}

	summary.Duration = time.Since(started)
	logger.Info("batch finished",
		logging.Int(logging.FieldItemCount, summary.Total),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.FailedCount()),
		logging.Bool("cancelled", summary.Cancelled),
		logging.Duration("elapsed", summary.Duration),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	opts.Observer.Finished(summary)
	return summary
}

func expandInputs(inputs []acquire.Input) []workItem {
	var out []workItem
	for _, in := range inputs {
		items, failures := acquire.Expand([]acquire.Input{in})
		for _, it := range items {
			out = append(out, workItem{input: it})
		}
		for _, f := range failures {
			out = append(out, workItem{input: f.Input, err: f.Err})
		}
	}
	return out
}

// processItem runs one item through every stage. It owns cleanup of the
// downloaded media; normalized audio is scoped by the normalizer. A panic in
// any stage fails the item as a transcription error and the batch goes on.
func (m *Manager) processItem(ctx context.Context, outcome ItemOutcome, opts RunOptions) (preview string, final ItemOutcome) {
	itemStart := time.Now()

	var acquired acquire.Acquired
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		outcome.Err = services.Wrap(services.ErrTranscription, string(StateTranscribing), "process item",
			outcome.Input.Location, fmt.Errorf("panic: %v", r))
		outcome.KeptMedia = m.disposeDownload(ctx, acquired, nil, opts.KeepDownloadedMedia)
		preview, final = "", outcome
	}()

	stageCtx := services.WithStage(ctx, string(StateAcquiring))
	acquired, err := m.acquirer.Fetch(stageCtx, outcome.Input)
	if err != nil {
		outcome.Err = err
		return "", outcome
	}
	logger := logging.WithContext(stageCtx, m.logger)
	logger.Info("item started",
		logging.String("source", acquired.Path),
		logging.Bool("downloaded", acquired.Downloaded),
		logging.String(logging.FieldEventType, "item_start"),
	)

	var result transcript.Result
	stageCtx = services.WithStage(ctx, string(StateNormalizing))
	err = m.normalizer.WithAudio(stageCtx, acquired.Path, func(audio normalize.Audio) error {
		tctx := services.WithStage(ctx, string(StateTranscribing))
		logging.WithContext(tctx, m.logger).Debug("transcribing",
			logging.String("audio", audio.Path),
			logging.Duration("audio_duration", audio.Duration),
		)
		segments, err := m.engine.Transcribe(tctx, audio.Path, opts.Directive)
		if err != nil {
			if services.KindOf(err) == services.KindUnknown {
				err = services.Wrap(services.ErrTranscription, string(StateTranscribing), "transcribe", acquired.Path, err)
			}
			return err
		}
		result = transcript.NewResult(segments)
		return nil
	})
	if err != nil {
		outcome.Err = err
		outcome.KeptMedia = m.disposeDownload(ctx, acquired, nil, opts.KeepDownloadedMedia)
		return "", outcome
	}

	dest, err := opts.Chooser.Choose(result.DerivedName)
	if err != nil {
		outcome.Err = services.Wrap(services.ErrOutputWrite, string(StateNaming), "choose destination", result.DerivedName, err)
		outcome.KeptMedia = m.disposeDownload(ctx, acquired, nil, opts.KeepDownloadedMedia)
		return "", outcome
	}
	outcome.Destination = dest

	stageCtx = services.WithStage(ctx, string(StateWriting))
	if err := subtitles.WriteSRT(dest.SRTPath, result.Segments); err != nil {
		outcome.Err = err
	} else if err := subtitles.WriteTranscript(dest.TextPath, result.FullText); err != nil {
		outcome.Err = err
		m.removeOrphan(stageCtx, dest.SRTPath)
	}
	if outcome.Err != nil {
		outcome.KeptMedia = m.disposeDownload(ctx, acquired, nil, opts.KeepDownloadedMedia)
		return "", outcome
	}
	if issues := subtitles.ValidateSRT(dest.SRTPath); len(issues) > 0 {
		logging.WarnWithContext(logging.WithContext(stageCtx, m.logger), "subtitle validation reported issues", "srt_validation",
			logging.String("path", dest.SRTPath),
			logging.Any("issues", issues),
			logging.String(logging.FieldErrorHint, "inspect engine segment timings"),
			logging.String(logging.FieldImpact, "subtitles may display out of order"),
		)
	}

	outcome.KeptMedia = m.disposeDownload(ctx, acquired, &dest, opts.KeepDownloadedMedia)

	logging.WithContext(services.WithStage(ctx, string(StateDone)), m.logger).Info("item completed",
		logging.String("name", dest.Name),
		logging.String("srt", dest.SRTPath),
		logging.String("transcript", dest.TextPath),
		logging.Int("segments", len(result.Segments)),
		logging.Duration("elapsed", time.Since(itemStart)),
		logging.String(logging.FieldEventType, "item_complete"),
	)
	return transcript.Preview(result), outcome
}

// removeOrphan deletes a subtitle file whose companion transcript could not
// be written, so a failed item leaves no partial outputs.
func (m *Manager) removeOrphan(ctx context.Context, path string) {
	if err := fileutil.RemoveIfExists(path); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "failed to remove orphaned subtitles", "orphan_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check output folder permissions"),
			logging.String(logging.FieldImpact, "subtitles exist without a transcript"),
		)
	}
}

// disposeDownload deletes fetched media, or relocates it when keep is set.
// On success the media lands next to the outputs as <name>.mp4; otherwise
// it goes to the configured output folder. It returns the kept path.
func (m *Manager) disposeDownload(ctx context.Context, acquired acquire.Acquired, dest *Destination, keep bool) string {
	if !acquired.Downloaded {
		return ""
	}
	logger := logging.WithContext(ctx, m.logger)
	if !keep {
		if err := fileutil.RemoveIfExists(acquired.Path); err != nil {
			logging.WarnWithContext(logger, "failed to delete downloaded media", "download_cleanup_failed",
				logging.String("path", acquired.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "stale download removed on next start"),
			)
		}
		return ""
	}

	dir, base := m.keptMediaTarget(dest)
	target, err := uniquePath(dir, base, filepath.Ext(acquired.Path))
	if err == nil {
		err = os.MkdirAll(dir, 0o755)
	}
	if err == nil {
		err = fileutil.MoveFile(acquired.Path, target)
	}
	if err != nil {
		logging.WarnWithContext(logger, "failed to retain downloaded media", "download_retain_failed",
			logging.String("path", acquired.Path),
			logging.String("target_dir", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check output folder permissions"),
			logging.String(logging.FieldImpact, "media left in work_dir until next start"),
		)
		return ""
	}
	logger.Info("downloaded media retained",
		logging.String("path", target),
		logging.String(logging.FieldEventType, "download_retained"),
	)
	return target
}

func (m *Manager) keptMediaTarget(dest *Destination) (string, string) {
	if dest != nil && dest.SRTPath != "" {
		return filepath.Dir(dest.SRTPath), dest.Name
	}
	dir := "."
	if m.cfg != nil && m.cfg.Output.Folder != "" {
		dir = m.cfg.Output.Folder
	}
	return dir, keptMediaName
}

func (m *Manager) logItemFailure(ctx context.Context, outcome ItemOutcome) {
	kind := services.KindOf(outcome.Err)
	attrs := []logging.Attr{
		logging.String("input", outcome.Input.Location),
		logging.ErrorKind(outcome.Err),
		logging.String(logging.FieldErrorHint, failureHint(kind)),
		logging.Alert("item_failure"),
		logging.Error(outcome.Err),
	}
	if details, ok := services.Details(outcome.Err); ok && details.Stage != "" {
		attrs = append(attrs, logging.String(logging.FieldStage, details.Stage))
	}
	logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "item failed", "item_failure", attrs...)
}

func failureHint(kind services.Kind) string {
	switch kind {
	case services.KindAcquisition:
		return "check the path exists or the URL is reachable and supported by yt-dlp"
	case services.KindMediaDecode:
		return "confirm the file plays and has an audio track; check ffmpeg output"
	case services.KindTranscription:
		return "check uvx/whisperx installation, model name and GPU settings"
	case services.KindOutputWrite:
		return "check output folder permissions and free space"
	default:
		return "check logs for details"
	}
}

func (m *Manager) engineName() string {
	if m.engine == nil {
		return ""
	}
	return m.engine.Name()
}

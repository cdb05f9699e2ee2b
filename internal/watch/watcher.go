package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"bytesub/internal/acquire"
	"bytesub/internal/logging"
	"bytesub/internal/workflow"
)

// DefaultSettle is how long a file's size must stay unchanged before it is
// considered fully written.
const DefaultSettle = 2 * time.Second

// Runner executes a batch.
type Runner interface {
	Run(ctx context.Context, inputs []acquire.Input, opts workflow.RunOptions) workflow.Summary
}

// Options configures a Watcher.
type Options struct {
	Settle time.Duration
	// RunOptions is called before each batch so every batch gets a fresh
	// destination chooser.
	RunOptions func() workflow.RunOptions
	// OnBatch, if set, receives every batch summary.
	OnBatch func(workflow.Summary)
}

// Watcher feeds newly created media files in one folder to a Runner.
type Watcher struct {
	dir    string
	runner Runner
	opts   Options
	logger *slog.Logger

	pending map[string]pendingFile
	// produced holds files this watcher's batches wrote, such as retained
	// downloads, so they are not picked up again.
	produced map[string]struct{}
}

type pendingFile struct {
	size int64
	seen time.Time
}

// New constructs a watcher for dir.
func New(dir string, runner Runner, opts Options, logger *slog.Logger) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	return &Watcher{
		dir:      dir,
		runner:   runner,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "watch"),
		pending:  make(map[string]pendingFile),
		produced: make(map[string]struct{}),
	}
}

// Watch blocks until ctx is cancelled or the underlying watcher fails.
// Files already present when Watch starts are ignored.
func (w *Watcher) Watch(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch folder: %s is not a directory", w.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			w.logger.Warn("failed to close watcher", logging.Error(err))
		}
	}()
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.logger.Info("watching folder",
		logging.String("dir", w.dir),
		logging.Duration("settle", w.opts.Settle),
		logging.String(logging.FieldEventType, "watch_start"),
	)

	ticker := time.NewTicker(w.opts.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			w.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches if events overflow"),
				logging.String(logging.FieldImpact, "some new files may be missed"),
			)
		case now := <-ticker.C:
			for _, path := range w.ready(now) {
				if ctx.Err() != nil {
					return nil
				}
				w.dispatch(ctx, path)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			delete(w.pending, event.Name)
		}
		return
	}
	if !acquire.IsMediaFile(event.Name) || filepath.Dir(event.Name) != filepath.Clean(w.dir) {
		return
	}
	if _, ok := w.produced[event.Name]; ok {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	w.pending[event.Name] = pendingFile{size: info.Size(), seen: time.Now()}
}

// ready returns pending files whose size has been stable for the settle
// period, in name order.
func (w *Watcher) ready(now time.Time) []string {
	var out []string
	for path, p := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if info.Size() != p.size {
			w.pending[path] = pendingFile{size: info.Size(), seen: now}
			continue
		}
		if now.Sub(p.seen) >= w.opts.Settle {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	for _, path := range out {
		delete(w.pending, path)
	}
	return out
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	opts := workflow.RunOptions{}
	if w.opts.RunOptions != nil {
		opts = w.opts.RunOptions()
	}
	w.logger.Info("new media detected",
		logging.String("path", path),
		logging.String(logging.FieldEventType, "watch_dispatch"),
	)
	summary := w.runner.Run(ctx, []acquire.Input{{Kind: acquire.KindLocalFile, Location: path}}, opts)
	for _, item := range summary.Items {
		if item.KeptMedia != "" {
			w.produced[item.KeptMedia] = struct{}{}
		}
	}
	if w.opts.OnBatch != nil {
		w.opts.OnBatch(summary)
	}
}

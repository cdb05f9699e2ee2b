package workflow

import (
	"context"
	"fmt"
	"time"

	"bytesub/internal/acquire"
	"bytesub/internal/normalize"
	"bytesub/internal/services"
	"bytesub/internal/transcribe"
)

// State names a point in an item's lifecycle. It is used as the stage tag on
// contexts, logs and errors.
type State string

const (
	StateAcquiring    State = "acquiring"
	StateNormalizing  State = "normalizing"
	StateTranscribing State = "transcribing"
	StateNaming       State = "naming"
	StateWriting      State = "writing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Fetcher makes an input available on local disk.
type Fetcher interface {
	Fetch(ctx context.Context, in acquire.Input) (acquire.Acquired, error)
}

// AudioPreparer yields normalized audio for the duration of fn.
type AudioPreparer interface {
	WithAudio(ctx context.Context, src string, fn func(normalize.Audio) error) error
}

// Observer receives batch progress. Calls are made from the goroutine
// running the batch, in order.
type Observer interface {
	ItemStarted(index, total int, in acquire.Input)
	ItemFinished(index, total int, in acquire.Input, preview string)
	ItemFailed(index, total int, in acquire.Input, err error)
	Progress(completed, total int)
	Finished(summary Summary)
}

// NopObserver ignores every callback.
type NopObserver struct{}

func (NopObserver) ItemStarted(int, int, acquire.Input)          {}
func (NopObserver) ItemFinished(int, int, acquire.Input, string) {}
func (NopObserver) ItemFailed(int, int, acquire.Input, error)    {}
func (NopObserver) Progress(int, int)                            {}
func (NopObserver) Finished(Summary)                             {}

// RunOptions tunes a single batch.
type RunOptions struct {
	Observer  Observer
	Chooser   DestinationChooser
	Directive transcribe.Directive
	// KeepDownloadedMedia relocates fetched remote media next to the outputs
	// instead of deleting it.
	KeepDownloadedMedia bool
}

// ItemOutcome is the result of one attempted item.
type ItemOutcome struct {
	Index       int
	Input       acquire.Input
	Destination Destination
	// KeptMedia is where retained downloaded media was moved, if anywhere.
	KeptMedia string
	Err       error
}

// Failed reports whether the item failed.
func (o ItemOutcome) Failed() bool {
	return o.Err != nil
}

// Summary describes a finished batch. It is discarded once reported.
type Summary struct {
	RunID     string
	Total     int
	Completed int
	Cancelled bool
	Items     []ItemOutcome
	Duration  time.Duration
}

// FailedCount returns the number of attempted items that failed.
func (s Summary) FailedCount() int {
	n := 0
	for _, item := range s.Items {
		if item.Failed() {
			n++
		}
	}
	return n
}

// Failures maps each failed input location to its error. When the same
// location appears more than once the last failure wins.
func (s Summary) Failures() map[string]error {
	out := make(map[string]error)
	for _, item := range s.Items {
		if item.Failed() {
			out[item.Input.Location] = item.Err
		}
	}
	return out
}

// FailureKinds counts failures by category.
func (s Summary) FailureKinds() map[services.Kind]int {
	out := make(map[services.Kind]int)
	for _, item := range s.Items {
		if item.Failed() {
			out[services.KindOf(item.Err)]++
		}
	}
	return out
}

// Status renders the one-line final status shown to the user.
func (s Summary) Status() string {
	failed := s.FailedCount()
	if s.Cancelled {
		return fmt.Sprintf("Cancelled. %d of %d file(s) attempted, %d failed.", s.Completed, s.Total, failed)
	}
	if failed == 0 {
		return fmt.Sprintf("Done. All %d file(s) processed.", s.Total)
	}
	return fmt.Sprintf("Done. %d of %d file(s) failed.", failed, s.Total)
}

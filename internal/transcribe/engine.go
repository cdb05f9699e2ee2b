package transcribe

import (
	"context"

	"bytesub/internal/transcript"
)

// Directive tells the engine what to produce. Task is "translate" or
// "transcribe"; Language is a language hint the engine maps to its own codes.
type Directive struct {
	Task     string
	Language string
}

// Engine converts a normalized waveform into ordered, timed segments.
// Implementations are constructed once per process and must tolerate
// sequential reuse; callers never invoke Transcribe concurrently, but
// implementations serialize anyway.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, directive Directive) ([]transcript.Segment, error)
}

// EngineFunc adapts a function into an Engine.
type EngineFunc func(ctx context.Context, audioPath string, directive Directive) ([]transcript.Segment, error)

// Name implements Engine.
func (f EngineFunc) Name() string { return "func" }

// Transcribe implements Engine.
func (f EngineFunc) Transcribe(ctx context.Context, audioPath string, directive Directive) ([]transcript.Segment, error) {
	return f(ctx, audioPath, directive)
}

package services

import "context"

type contextKey string

const (
	itemIndexKey contextKey = "item_index"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithItemIndex annotates context with the 1-based position of the item in its batch.
func WithItemIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, itemIndexKey, index)
}

// ItemIndexFromContext extracts the batch item position if present.
func ItemIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(itemIndexKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier. Batch runs use
// their run ID here so every log line of one batch can be grouped.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

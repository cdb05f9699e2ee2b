package services

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline failure markers. Every per-item error carries exactly one of these
// so the batch orchestrator can classify it without string matching.
var (
	ErrAcquisition   = errors.New("acquisition error")
	ErrMediaDecode   = errors.New("media decode error")
	ErrTranscription = errors.New("transcription error")
	ErrOutputWrite   = errors.New("output write error")
	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")
)

// Kind names a failure category for status output and structured logs.
type Kind string

const (
	KindAcquisition   Kind = "acquisition"
	KindMediaDecode   Kind = "media_decode"
	KindTranscription Kind = "transcription"
	KindOutputWrite   Kind = "output_write"
	KindConfiguration Kind = "configuration"
	KindExternalTool  Kind = "external_tool"
	KindUnknown       Kind = "unknown"
)

// Error is the structured failure produced by pipeline stages. It keeps the
// marker, the stage that failed, and the media path involved so callers can
// report "which item, which step" without parsing messages.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Path      string
	Cause     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Path)
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Marker, detail, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Marker, detail)
}

// Unwrap exposes both the marker and the cause to errors.Is/errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Marker != nil {
		out = append(out, e.Marker)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Wrap builds a stage error tagged with the provided marker. The marker should
// be one of the exported sentinel errors above; nil falls back to
// ErrExternalTool.
func Wrap(marker error, stage, operation, path string, err error) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Path:      strings.TrimSpace(path),
		Cause:     err,
	}
}

// KindOf maps an error to its failure category.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrAcquisition):
		return KindAcquisition
	case errors.Is(err, ErrMediaDecode):
		return KindMediaDecode
	case errors.Is(err, ErrTranscription):
		return KindTranscription
	case errors.Is(err, ErrOutputWrite):
		return KindOutputWrite
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	default:
		return KindUnknown
	}
}

// Details extracts the structured stage error, if any.
func Details(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Summary returns a short diagnostic suitable for a single status line.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	details, ok := Details(err)
	if !ok || details.Cause == nil {
		return strings.TrimSpace(err.Error())
	}
	msg := strings.TrimSpace(details.Cause.Error())
	if details.Stage != "" {
		msg = details.Stage + ": " + msg
	}
	return msg
}

func buildDetail(stage, operation, path string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if path != "" {
		parts = append(parts, path)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

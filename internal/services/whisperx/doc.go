// Package whisperx runs WhisperX through uvx and returns its timed segments.
//
// Each call writes JSON output into a private scratch directory that is
// removed before returning. Calls on one Service are serialized.
package whisperx

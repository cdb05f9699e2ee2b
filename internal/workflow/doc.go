// Package workflow runs batches of media items through the transcription
// pipeline: acquire, normalize, transcribe, name and write.
//
// Items are processed strictly one at a time. A failing item is recorded and
// the batch moves on; progress advances exactly once per attempted item.
// Cancellation is observed only between items so an item is never left
// half-written. Observers receive per-item callbacks and the final Summary.
package workflow

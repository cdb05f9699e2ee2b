// Package watch transcribes media files as they appear in a folder.
//
// New files are debounced until their size stops changing, then handed to
// the batch runner one at a time as single-item batches.
package watch

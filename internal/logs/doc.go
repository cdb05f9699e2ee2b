// Package logs reads the bytesub log file for the `bytesub logs` command.
//
// Tail emits the last N matching lines with bounded memory and, in follow
// mode, keeps polling for appended lines until the context is cancelled.
// Filter narrows output to one batch run, one item or a search term and
// understands both the console and JSON log formats.
package logs

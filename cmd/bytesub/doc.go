// Package main hosts the bytesub CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, builds the pipeline
// (downloader, normalizer, WhisperX engine and workflow manager) once per
// invocation and renders batch progress, previews and summaries. Pipeline
// behavior lives in the internal packages; commands here only wire and
// present.
package main

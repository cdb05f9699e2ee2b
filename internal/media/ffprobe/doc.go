// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe; Result helpers answer the questions the normalizer
// asks before extracting audio: is there an audio stream, how long is it.
package ffprobe

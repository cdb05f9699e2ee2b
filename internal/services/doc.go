// Package services defines shared utilities consumed by the pipeline stages and
// external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch item positions, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify per-item
//     failures (acquisition, decode, transcription, output write).
//
// Subpackages wrap the external command-line tools the pipeline drives
// (yt-dlp for downloads, WhisperX for speech recognition).
package services

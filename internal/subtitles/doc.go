// Package subtitles renders transcript segments as SRT and writes the SRT
// and plain-text outputs. It also parses SRT back for post-write checks.
package subtitles

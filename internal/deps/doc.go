// Package deps reports whether the external executables ByteSub drives
// (ffmpeg, ffprobe, yt-dlp, uvx) are installed.
package deps

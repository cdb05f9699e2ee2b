// Package ytdlp downloads remote media with the yt-dlp CLI.
//
// The client streams yt-dlp's newline-delimited progress output so callers
// can surface download percentage while a fetch is in flight.
package ytdlp

// Package normalize converts any audio-bearing media into the mono 16 kHz
// PCM WAV the speech engine expects.
//
// The converted file is scoped to a callback: WithAudio creates it, hands it
// to fn, and removes it on every exit path.
package normalize

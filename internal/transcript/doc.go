// Package transcript holds the recognized segments of one media item and
// derives the flat transcript, the output base name and the preview text
// shown once an item finishes.
package transcript

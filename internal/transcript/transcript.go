package transcript

import (
	"strings"

	"bytesub/internal/textutil"
)

// DefaultName is used when the recognized text contains no word characters.
const DefaultName = "output"

// PreviewHeader separates the flat transcript from the subtitle lines in a preview.
const PreviewHeader = "-- Subtitles Preview --"

const (
	nameTokenCount = 3
	// maxNameBytes keeps <name>_NN.srt within common filesystem name limits.
	maxNameBytes = 200
)

// Segment is one recognized span of speech. Start and End are seconds from
// the beginning of the media.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is the outcome of transcribing one media item.
type Result struct {
	Segments    []Segment
	FullText    string
	DerivedName string
}

// NewResult trims every segment's text and builds the flat transcript and
// derived name from it. The returned Result does not alias segments.
func NewResult(segments []Segment) Result {
	cleaned := make([]Segment, len(segments))
	for i, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		cleaned[i] = seg
	}
	full := FullText(cleaned)
	return Result{
		Segments:    cleaned,
		FullText:    full,
		DerivedName: DeriveName(full),
	}
}

// FullText joins the trimmed segment texts with a single space.
func FullText(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = strings.TrimSpace(seg.Text)
	}
	return strings.Join(parts, " ")
}

// DeriveName returns the first three word tokens of text joined by "_", or
// DefaultName when there are none. The result is deterministic for a given
// text and is not deduplicated against existing files.
func DeriveName(text string) string {
	tokens := textutil.WordTokens(text, nameTokenCount)
	if len(tokens) == 0 {
		return DefaultName
	}
	name := textutil.TruncateBytes(strings.Join(tokens, "_"), maxNameBytes)
	if name == "" {
		return DefaultName
	}
	return name
}

// Preview renders the flat transcript, the preview header and then one line
// of text per segment.
func Preview(result Result) string {
	lines := make([]string, len(result.Segments))
	for i, seg := range result.Segments {
		lines[i] = strings.TrimSpace(seg.Text)
	}
	return result.FullText + "\n\n" + PreviewHeader + "\n\n" + strings.Join(lines, "\n")
}

package subtitles

import (
	"fmt"
	"math"
	"strings"

	"bytesub/internal/fileutil"
	"bytesub/internal/services"
	"bytesub/internal/transcript"
)

const stageName = "write"

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Every component is
// truncated, never rounded, so 3725.1267 becomes 01:02:05,126. Negative and
// non-finite values render as zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	whole := math.Floor(seconds)
	hours := int(whole / 3600)
	minutes := int(math.Mod(whole, 3600) / 60)
	secs := int(math.Mod(whole, 60))
	millis := int((seconds - whole) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// RenderSRT serializes segments as SRT cues numbered from 1 in input order.
// Each cue is "<n>\n<start> --> <end>\n<text>\n\n".
func RenderSRT(segments []transcript.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(seg.Start),
			FormatTimestamp(seg.End),
			strings.TrimSpace(seg.Text),
		)
	}
	return b.String()
}

// WriteSRT atomically writes the SRT rendering of segments to path.
func WriteSRT(path string, segments []transcript.Segment) error {
	if err := fileutil.WriteFileAtomic(path, []byte(RenderSRT(segments)), 0o644); err != nil {
		return services.Wrap(services.ErrOutputWrite, stageName, "write srt", path, err)
	}
	return nil
}

// WriteTranscript atomically writes fullText to path as UTF-8 with no
// trailing newline added.
func WriteTranscript(path, fullText string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(fullText), 0o644); err != nil {
		return services.Wrap(services.ErrOutputWrite, stageName, "write transcript", path, err)
	}
	return nil
}

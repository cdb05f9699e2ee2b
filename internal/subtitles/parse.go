package subtitles

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Cue is a parsed SRT entry.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// ParseTimestamp converts HH:MM:SS,mmm (or with a period) to seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// ParseSRT reads cues from SRT content. Blocks without a valid timing line
// are reported as errors.
func ParseSRT(content string) ([]Cue, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var cues []Cue
	for _, block := range splitBlocks(content) {
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("malformed cue %q", block)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid cue index %q", lines[0])
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("cue %d: invalid timing line %q", index, lines[1])
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		cues = append(cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}

// CountCues returns the number of non-empty cue blocks in an SRT file.
func CountCues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	return len(splitBlocks(string(data))), nil
}

// ValidateSRT checks a written SRT file. It returns a list of issues; an
// empty slice means the file is well formed. A file with no cues is valid.
func ValidateSRT(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	cues, err := ParseSRT(string(data))
	if err != nil {
		return []string{fmt.Sprintf("parse_error: %v", err)}
	}
	var issues []string
	last := math.Inf(-1)
	for i, cue := range cues {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("cue_numbering: expected %d, got %d", i+1, cue.Index))
		}
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("cue_%d_negative_duration", cue.Index))
		}
		if cue.Start < last {
			issues = append(issues, fmt.Sprintf("cue_%d_out_of_order", cue.Index))
		}
		last = cue.Start
	}
	return issues
}

func splitBlocks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var blocks []string
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

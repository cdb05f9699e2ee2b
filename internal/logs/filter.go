package logs

import (
	"strconv"
	"strings"

	"bytesub/internal/logging"
)

// Filter selects log lines. Empty fields match everything.
type Filter struct {
	// RunID matches the correlation id stamped on every line of a batch.
	RunID string
	// Item matches lines logged for one 1-based batch position.
	Item int
	// Level is the minimum level: debug, info, warn or error.
	Level  string
	Search string
}

// Empty reports whether the filter accepts every line.
func (f Filter) Empty() bool {
	return f.RunID == "" && f.Item <= 0 && f.Level == "" && f.Search == ""
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.RunID != "" && !hasField(line, logging.FieldCorrelationID, f.RunID, true) {
		return false
	}
	if f.Item > 0 && !hasField(line, logging.FieldItemIndex, strconv.Itoa(f.Item), false) {
		return false
	}
	if f.Level != "" && levelRank(lineLevel(line)) < levelRank(f.Level) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(line), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// hasField matches key=value (console) or "key":value (JSON) where value is
// the whole field value.
func hasField(line, key, value string, quoted bool) bool {
	if containsToken(line, " "+key+"="+value, " ") {
		return true
	}
	jsonValue := value
	if quoted {
		jsonValue = strconv.Quote(value)
	}
	return containsToken(line, strconv.Quote(key)+":"+jsonValue, ",}")
}

// containsToken reports whether token occurs in line followed by the end of
// the line or one of the terminator bytes.
func containsToken(line, token, terminators string) bool {
	for rest := line; ; {
		i := strings.Index(rest, token)
		if i < 0 {
			return false
		}
		end := i + len(token)
		if end == len(rest) || strings.IndexByte(terminators, rest[end]) >= 0 {
			return true
		}
		rest = rest[i+1:]
	}
}

// lineLevel extracts the level from a console line ("<time> INFO ...") or a
// JSON line ("level":"INFO").
func lineLevel(line string) string {
	if i := strings.Index(line, `"level":"`); i >= 0 {
		rest := line[i+len(`"level":"`):]
		if j := strings.IndexByte(rest, '"'); j >= 0 {
			return rest[:j]
		}
	}
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		return fields[1]
	}
	return ""
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return 1
	}
}

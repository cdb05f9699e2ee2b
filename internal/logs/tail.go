package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// DefaultPoll is how often follow mode checks for appended lines.
const DefaultPoll = 250 * time.Millisecond

const maxLineBytes = 1024 * 1024

// TailOptions controls Tail.
type TailOptions struct {
	// Lines is how many trailing matching lines to emit first. Zero emits none.
	Lines  int
	Follow bool
	Poll   time.Duration
	// Match filters lines; nil accepts every line.
	Match func(string) bool
}

// Tail writes the last matching lines of path to emit and, when following,
// every matching line appended afterwards. A missing file is treated as
// empty. Following stops without error when ctx is cancelled. A file that
// shrinks is assumed rotated and is re-read from the start.
func Tail(ctx context.Context, path string, opts TailOptions, emit func(string)) error {
	if opts.Poll <= 0 {
		opts.Poll = DefaultPoll
	}
	match := opts.Match
	if match == nil {
		match = func(string) bool { return true }
	}

	offset, err := emitLast(path, opts.Lines, match, emit)
	if err != nil || !opts.Follow {
		return err
	}

	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				offset = 0
				continue
			}
			return fmt.Errorf("stat log file: %w", err)
		}
		if info.Size() < offset {
			offset = 0
		}
		if info.Size() == offset {
			continue
		}
		offset, err = readFrom(path, offset, func(line string) {
			if match(line) {
				emit(line)
			}
		})
		if err != nil {
			return err
		}
	}
}

// emitLast emits up to limit trailing matching lines and returns the end
// offset of the complete lines read.
func emitLast(path string, limit int, match func(string) bool, emit func(string)) (int64, error) {
	var ring []string
	if limit > 0 {
		ring = make([]string, 0, limit)
	}
	offset, err := readFrom(path, 0, func(line string) {
		if limit <= 0 || !match(line) {
			return
		}
		if len(ring) == limit {
			copy(ring, ring[1:])
			ring = ring[:limit-1]
		}
		ring = append(ring, line)
	})
	if err != nil {
		return 0, err
	}
	for _, line := range ring {
		emit(line)
	}
	return offset, nil
}

// readFrom calls fn for each complete line after offset and returns the
// offset just past the last complete line. A trailing partial line is left
// for the next read.
func readFrom(path string, offset int64, fn func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return offset, fmt.Errorf("log path %q is a directory", path)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		text := line[:len(line)-1]
		if len(text) > maxLineBytes {
			text = text[:maxLineBytes]
		}
		if n := len(text); n > 0 && text[n-1] == '\r' {
			text = text[:n-1]
		}
		fn(text)
	}
}

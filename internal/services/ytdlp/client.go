package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Progress captures a yt-dlp download progress line.
type Progress struct {
	Percent float64
	Message string
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Download fetches a single video from url into dest, replacing any previous
// file there. A partial download is removed on failure.
func (c *Client) Download(ctx context.Context, url, dest string, progress func(Progress)) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("url required")
	}
	if dest == "" {
		return errors.New("destination path required")
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("prepare destination: %w", err)
	}

	args := []string{
		"--no-playlist",
		"--newline",
		"--no-part",
		"--force-overwrites",
		"--merge-output-format", "mp4",
		"-o", dest,
		url,
	}

	var lastErrLine string
	onLine := func(line string) {
		if strings.HasPrefix(line, "ERROR:") {
			lastErrLine = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
		if progress == nil {
			return
		}
		if update, ok := parseProgress(line); ok {
			progress(update)
		}
	}

	if err := c.exec.Run(ctx, c.binary, args, onLine); err != nil {
		_ = os.Remove(dest)
		if lastErrLine != "" {
			return fmt.Errorf("yt-dlp: %s: %w", lastErrLine, err)
		}
		return fmt.Errorf("yt-dlp: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("yt-dlp produced no file at %s: %w", dest, err)
	}
	if info.Size() == 0 {
		_ = os.Remove(dest)
		return fmt.Errorf("yt-dlp produced an empty file at %s", dest)
	}
	return nil
}

var progressPattern = regexp.MustCompile(`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)

func parseProgress(line string) (Progress, bool) {
	match := progressPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return Progress{}, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return Progress{}, false
	}
	return Progress{Percent: value, Message: strings.TrimSpace(line)}, true
}

type commandExecutor struct{}

// Run streams stdout and stderr lines to onLine and waits for the command.
func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
	)

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onLine == nil {
				continue
			}
			mu.Lock()
			onLine(scanner.Text())
			mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("read output: %w", scanErr)
	}
	return nil
}

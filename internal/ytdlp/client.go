// Package ytdlp binds the yt-dlp executable as the video extraction
// backend. The binary reports failures as free-form stderr text; errors
// returned here carry that text verbatim so internal/faults can classify it.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ytfetch/ytfetch/internal/faults"
)

const (
	defaultPath    = "yt-dlp"
	defaultTimeout = 30 * time.Minute
)

// Options tune one backend invocation.
type Options struct {
	// CookiePath points at a Netscape-format cookie file, empty for
	// unauthenticated requests.
	CookiePath string
	// UserAgent overrides the backend's default user agent.
	UserAgent string
	// SleepInterval asks the backend to pause between its own requests.
	SleepInterval time.Duration
}

// Client runs yt-dlp as a subprocess.
type Client struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp" from PATH.
	Path string
	// Timeout bounds one invocation. Defaults to 30 minutes.
	Timeout time.Duration
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
}

// NewClient creates a client for the given executable path.
func NewClient(path string) *Client {
	if path == "" {
		path = defaultPath
	}
	return &Client{Path: path, Timeout: defaultTimeout}
}

// CheckInstalled verifies the executable is runnable.
func (c *Client) CheckInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.path(), "--version")
	if err := cmd.Run(); err != nil {
		return faults.Wrap(faults.KindFatal, "yt-dlp is not installed or not executable", err)
	}
	return nil
}

// FetchMetadata queries video metadata without transferring media.
func (c *Client) FetchMetadata(ctx context.Context, url string, opts Options) (*RawInfo, error) {
	args := []string{
		"-J",
		"--no-playlist",
		"--no-warnings",
	}
	args = c.appendCommonArgs(args, opts)
	args = append(args, url)

	cmdCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, c.path(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("fetching metadata", "url", url, "authenticated", opts.CookiePath != "")

	if err := cmd.Run(); err != nil {
		return nil, c.wrapRunError(cmdCtx, err, stderr.String())
	}

	var info RawInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, faults.Wrap(faults.KindFatal, "malformed backend metadata", err)
	}
	return &info, nil
}

// Download transfers media for url using the given format selection
// expression, writing output through outputTemplate. Byte-level progress
// parsed from the backend's output is forwarded to onProgress when a total
// size is known.
func (c *Client) Download(ctx context.Context, url, formatExpr, outputTemplate string, opts Options, onProgress func(Progress)) error {
	args := []string{
		"-f", formatExpr,
		"-o", outputTemplate,
		"--newline",
		"--no-warnings",
		"--merge-output-format", "mp4",
	}
	args = c.appendCommonArgs(args, opts)
	args = append(args, url)

	cmdCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, c.path(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attach stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start yt-dlp: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if onProgress == nil {
			continue
		}
		if p, ok := parseProgressLine(scanner.Text()); ok {
			onProgress(p)
		}
	}

	if err := cmd.Wait(); err != nil {
		return c.wrapRunError(cmdCtx, err, stderr.String())
	}
	return nil
}

func (c *Client) appendCommonArgs(args []string, opts Options) []string {
	if opts.CookiePath != "" {
		args = append(args, "--cookies", opts.CookiePath)
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	if opts.SleepInterval > 0 {
		args = append(args, "--sleep-interval", fmt.Sprintf("%d", int(opts.SleepInterval.Seconds())))
	}
	return append(args, c.ExtraArgs...)
}

func (c *Client) wrapRunError(cmdCtx context.Context, err error, stderr string) error {
	if cmdCtx.Err() == context.DeadlineExceeded {
		return faults.Wrap(faults.KindTransient, "backend invocation timed out", cmdCtx.Err())
	}
	if cmdCtx.Err() == context.Canceled {
		return cmdCtx.Err()
	}

	wrapped := fmt.Errorf("yt-dlp failed: %w: %s", err, stderr)
	return faults.Wrap(faults.Classify(wrapped), "extraction backend error", wrapped)
}

func (c *Client) path() string {
	if c.Path != "" {
		return c.Path
	}
	return defaultPath
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

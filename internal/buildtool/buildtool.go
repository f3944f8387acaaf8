// Package buildtool runs the bootstrapped arduino-cli executable.
//
// Every invocation gets a scrubbed environment so a user's own arduino-cli
// configuration variables never leak into the installer's runs, and every
// error is redacted before it reaches the console.
package buildtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mitchellh/go-homedir"
)

// Error types for user-facing errors.
var (
	ErrNotInstalled = errors.New("build tool is not installed")
	ErrInvocation   = errors.New("build tool command failed")
	ErrOutput       = errors.New("unexpected build tool output")
)

// passthroughEnv lists the variables forwarded to the build tool.
var passthroughEnv = []string{
	"HOME", "PATH", "USER", "LANG",
	"USERPROFILE", "APPDATA", "LOCALAPPDATA", "SystemRoot", "TEMP", "TMP",
}

// waitDelay bounds how long a killed process may hold its output pipes.
const waitDelay = 2 * time.Second

// maxRedactedRunes caps error text shown to the operator.
const maxRedactedRunes = 200

var (
	homePattern  = regexp.MustCompile(`/home/[^/\s]+`)
	usersPattern = regexp.MustCompile(`/Users/[^/\s]+`)
)

// RedactedError wraps an error with a redacted message while preserving
// the error chain for errors.Is/errors.As checks.
type RedactedError struct {
	message string
	wrapped error
}

// Error returns the redacted error message.
func (e *RedactedError) Error() string {
	return e.message
}

// Unwrap returns the wrapped error.
func (e *RedactedError) Unwrap() error {
	return e.wrapped
}

func newRedactedError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &RedactedError{
		message: fmt.Sprintf("%s: %s", op, redactSensitiveInfo(err.Error())),
		wrapped: err,
	}
}

// Tool is the set of build tool operations the installer uses.
type Tool interface {
	ListDevices(ctx context.Context) ([]Device, error)
	Upload(ctx context.Context, port, fqbn, sketchDir string) error
}

// Client implements Tool by executing arduino-cli.
type Client struct {
	bin string
}

// NewClient returns a client for the executable at bin.
func NewClient(bin string) *Client {
	return &Client{bin: bin}
}

// Path returns the executable path.
func (c *Client) Path() string {
	return c.bin
}

// ListDevices runs "board list" and returns the connected devices.
// On a fresh tool install the first call also provisions platform drivers,
// so callers that need a stable listing call it twice.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	stdout, err := c.run(ctx, "board", "list", "--format", "json")
	if err != nil {
		return nil, err
	}

	devices, err := parseBoardList(stdout)
	if err != nil {
		return nil, newRedactedError(err, "parse device list")
	}
	return devices, nil
}

// Upload compiles the sketch in sketchDir for fqbn and flashes it to port.
func (c *Client) Upload(ctx context.Context, port, fqbn, sketchDir string) error {
	if port == "" || fqbn == "" {
		return fmt.Errorf("%w: port and board are required", ErrInvocation)
	}
	if _, err := os.Stat(sketchDir); err != nil {
		return newRedactedError(err, "check sketch directory")
	}

	_, err := c.run(ctx,
		"compile",
		"--fqbn", fqbn,
		"--upload",
		"--port", port,
		sketchDir,
	)
	return err
}

// run executes the tool and returns its stdout. Stderr is only used for
// error translation.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, translateError(err, "")
	}
	if _, err := os.Stat(c.bin); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInstalled
		}
		return nil, newRedactedError(err, "check build tool")
	}

	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Env = scrubbedEnv(os.Getenv)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, translateError(err, stderr.String())
	}

	return stdout.Bytes(), nil
}

func scrubbedEnv(getenv func(string) string) []string {
	env := make([]string, 0, len(passthroughEnv))
	for _, key := range passthroughEnv {
		if v := getenv(key); v != "" {
			env = append(env, key+"="+v)
		}
	}
	return env
}

// translateError maps a failed invocation to a user-facing error.
func translateError(err error, stderr string) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("operation cancelled: %w", context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("operation timed out: %w", context.DeadlineExceeded)
	}

	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "permission denied"):
		return fmt.Errorf("%w: permission denied", ErrInvocation)
	case strings.Contains(lower, "no such file"), strings.Contains(lower, "not found"):
		return fmt.Errorf("%w: %s", ErrInvocation, redactSensitiveInfo(firstLine(stderr)))
	}

	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvocation, redactSensitiveInfo(msg))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// redactSensitiveInfo removes home directory paths, then limits the
// message to maxRedactedRunes runes.
func redactSensitiveInfo(msg string) string {
	if home, err := homedir.Dir(); err == nil && home != "" && home != "/" {
		msg = strings.ReplaceAll(msg, home, "$HOME")
	}

	msg = homePattern.ReplaceAllString(msg, "/home/<user>")
	msg = usersPattern.ReplaceAllString(msg, "/Users/<user>")

	if utf8.RuneCountInString(msg) > maxRedactedRunes {
		msg = string([]rune(msg)[:maxRedactedRunes]) + "..."
	}
	return msg
}

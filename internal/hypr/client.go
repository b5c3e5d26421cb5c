package hypr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every hyprctl invocation.
const DefaultTimeout = 3 * time.Second

// ErrNoFocusedWindow is returned when Hyprland reports no active window.
var ErrNoFocusedWindow = errors.New("no focused window")

// RejectedError means hyprctl refused a command: non-zero exit, an error
// reply, a timeout, or a reply that could not be parsed.
type RejectedError struct {
	Command []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *RejectedError) Error() string {
	cmd := strings.Join(e.Command, " ")
	switch {
	case e.Err != nil && e.Stderr != "":
		return fmt.Sprintf("%s: %v: %s", cmd, e.Err, e.Stderr)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", cmd, e.Err)
	case e.Stdout != "":
		return fmt.Sprintf("%s: rejected: %s", cmd, e.Stdout)
	default:
		return fmt.Sprintf("%s: rejected", cmd)
	}
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Runner executes an external command and captures its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

// WithBinary overrides the hyprctl executable.
func WithBinary(path string) Option {
	return func(c *Client) {
		c.binary = path
	}
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client issues hyprctl commands. It never retries; a failed invocation is
// final for that call.
type Client struct {
	runner  Runner
	binary  string
	timeout time.Duration
}

// NewClient creates a hyprctl client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		runner:  ExecRunner{},
		binary:  "hyprctl",
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the hyprctl binary can be found.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// FocusedWindow returns the active window.
func (c *Client) FocusedWindow(ctx context.Context) (Window, error) {
	var w Window
	if err := c.query(ctx, &w, "activewindow", "-j"); err != nil {
		return Window{}, err
	}
	if strings.TrimSpace(w.Address) == "" {
		return Window{}, ErrNoFocusedWindow
	}
	return w, nil
}

// ActiveWorkspace returns the workspace currently shown on the focused monitor.
func (c *Client) ActiveWorkspace(ctx context.Context) (Workspace, error) {
	var ws Workspace
	if err := c.query(ctx, &ws, "activeworkspace", "-j"); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// Clients lists every mapped window.
func (c *Client) Clients(ctx context.Context) ([]Window, error) {
	var windows []Window
	if err := c.query(ctx, &windows, "clients", "-j"); err != nil {
		return nil, err
	}
	return windows, nil
}

// Workspaces lists every existing workspace.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var workspaces []Workspace
	if err := c.query(ctx, &workspaces, "workspaces", "-j"); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// WindowExists reports whether address is still a live client. Query
// failures count as "does not exist".
func (c *Client) WindowExists(ctx context.Context, address string) bool {
	windows, err := c.Clients(ctx)
	if err != nil {
		return false
	}
	for _, w := range windows {
		if w.Address == address {
			return true
		}
	}
	return false
}

// WorkspaceExists reports whether a workspace currently resolves. Workspaces
// with a positive id are matched by id, named ones by name.
func (c *Client) WorkspaceExists(ctx context.Context, ref Workspace) bool {
	workspaces, err := c.Workspaces(ctx)
	if err != nil {
		return false
	}
	for _, ws := range workspaces {
		if ref.matches(ws) {
			return true
		}
	}
	return false
}

// MoveToSpecial hides a window in special:<name> without following it.
func (c *Client) MoveToSpecial(ctx context.Context, address string, special string) error {
	return c.dispatch(ctx, "movetoworkspacesilent", fmt.Sprintf("special:%s,%s", special, addressSelector(address)))
}

// MoveToWorkspace moves a window to a regular workspace.
func (c *Client) MoveToWorkspace(ctx context.Context, address string, workspace Workspace) error {
	return c.dispatch(ctx, "movetoworkspacesilent", fmt.Sprintf("%s,%s", workspace.Selector(), addressSelector(address)))
}

// FocusWindow focuses a window, switching workspace if needed.
func (c *Client) FocusWindow(ctx context.Context, address string) error {
	return c.dispatch(ctx, "focuswindow", addressSelector(address))
}

func addressSelector(address string) string {
	return "address:" + address
}

// dispatch runs "hyprctl dispatch <name> <arg>". hyprctl answers "ok" on
// success and an error message otherwise, sometimes with exit status 0.
func (c *Client) dispatch(ctx context.Context, dispatcher string, arg string) error {
	stdout, stderr, args, err := c.run(ctx, "dispatch", dispatcher, arg)
	if err != nil {
		return err
	}
	reply := strings.TrimSpace(string(stdout))
	if reply != "" && !strings.EqualFold(reply, "ok") {
		return &RejectedError{
			Command: args,
			Stdout:  reply,
			Stderr:  strings.TrimSpace(string(stderr)),
		}
	}
	return nil
}

func (c *Client) query(ctx context.Context, out any, args ...string) error {
	stdout, stderr, fullArgs, err := c.run(ctx, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return &RejectedError{
			Command: fullArgs,
			Stdout:  strings.TrimSpace(string(stdout)),
			Stderr:  strings.TrimSpace(string(stderr)),
			Err:     fmt.Errorf("failed to parse reply: %w", err),
		}
	}
	return nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, []byte, []string, error) {
	fullArgs := append([]string{c.binary}, args...)

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, err := c.runner.Run(runCtx, c.binary, args...)
	if err != nil {
		if runCtx.Err() != nil {
			err = fmt.Errorf("timed out after %s: %w", c.timeout, runCtx.Err())
		}
		return nil, nil, fullArgs, &RejectedError{
			Command: fullArgs,
			Stdout:  strings.TrimSpace(string(stdout)),
			Stderr:  strings.TrimSpace(string(stderr)),
			Err:     err,
		}
	}
	return stdout, stderr, fullArgs, nil
}

package picker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrCancelled is returned when the user closes the picker without selecting.
var ErrCancelled = errors.New("picker cancelled")

// Capabilities describes what features a backend supports.
type Capabilities struct {
	IndexOutput   bool // Selection is reported as a row index rather than text
	FuzzyMatching bool // Supports a fuzzy matching mode
}

// Backend shows lines to the user and returns the selected one.
type Backend interface {
	// Show displays the picker and returns the selected line verbatim.
	Show(ctx context.Context, prompt string, lines []string) (string, error)

	// Name returns the backend name for diagnostics.
	Name() string

	// Capabilities returns the features supported by this backend.
	Capabilities() Capabilities
}

// backendOrder is the auto-detection priority.
var backendOrder = []string{"walker", "rofi", "fuzzel", "wofi", "tofi", "dmenu"}

// DetectBackend returns the first available picker found in PATH. When none
// is installed but stdin is a terminal, "terminal" is returned.
func DetectBackend() (string, error) {
	for _, name := range backendOrder {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	if stdinIsTerminal() {
		return "terminal", nil
	}
	return "", fmt.Errorf("no picker found in PATH (looked for: %s)", strings.Join(backendOrder, ", "))
}

// AutoDetect selects the first available backend in priority order.
func AutoDetect() (Backend, error) {
	name, err := DetectBackend()
	if err != nil {
		return nil, err
	}
	return NewBackend(name)
}

// NewBackend creates a backend by name.
//
// Supported names: auto, walker, rofi, fuzzel, wofi, tofi, dmenu, terminal.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "auto":
		return AutoDetect()
	case "terminal":
		if !stdinIsTerminal() {
			return nil, fmt.Errorf("terminal picker requires an interactive terminal")
		}
		return NewTerminalBackend(), nil
	}

	ctor, ok := dmenuConstructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown picker: %q (expected: auto, %s, terminal)", name, strings.Join(backendOrder, ", "))
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("picker %q not found in PATH", name)
	}
	return ctor(), nil
}

// Adapter ties line formatting, the picker process and selection parsing
// together.
type Adapter struct {
	backend Backend
	prompt  string
	timeout time.Duration
}

// NewAdapter wraps a backend. A zero timeout means no limit beyond ctx.
func NewAdapter(backend Backend, prompt string, timeout time.Duration) *Adapter {
	return &Adapter{backend: backend, prompt: prompt, timeout: timeout}
}

// Invoke shows lines and returns the selected one. Expiry of the timeout is
// reported as ErrCancelled.
func (a *Adapter) Invoke(ctx context.Context, lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("picker: no items to show")
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	line, err := a.backend.Show(ctx, a.prompt, lines)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrCancelled) {
			return "", fmt.Errorf("%w: %s timed out: %v", ErrCancelled, a.backend.Name(), ctx.Err())
		}
		return "", err
	}
	return line, nil
}

// Pick formats entries, invokes the picker and returns the selected address.
func (a *Adapter) Pick(ctx context.Context, entries []Entry) (string, error) {
	line, err := a.Invoke(ctx, Format(entries))
	if err != nil {
		return "", err
	}
	return ParseSelection(line)
}

package picker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// terminalBackend renders the list as an interactive select on the
// controlling terminal. The form is drawn on stderr so stdout stays clean.
type terminalBackend struct{}

// NewTerminalBackend returns a picker that runs inside the current terminal.
func NewTerminalBackend() Backend {
	return &terminalBackend{}
}

func (b *terminalBackend) Name() string {
	return "terminal"
}

func (b *terminalBackend) Capabilities() Capabilities {
	return Capabilities{FuzzyMatching: true}
}

func (b *terminalBackend) Show(ctx context.Context, prompt string, lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("picker: no items to show")
	}

	opts := make([]huh.Option[string], 0, len(lines))
	for _, line := range lines {
		opts = append(opts, huh.NewOption(line, line))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(prompt).
				Options(opts...).
				Filtering(true).
				Value(&choice),
		),
	).WithOutput(os.Stderr).WithShowHelp(true)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, huh.ErrTimeout) || ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("terminal picker failed: %w", err)
	}
	if choice == "" {
		return "", ErrCancelled
	}
	return choice, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

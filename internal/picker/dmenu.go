package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type backendKind int

const (
	kindWalker backendKind = iota
	kindRofi
	kindFuzzel
	kindWofi
	kindTofi
	kindDmenu
)

// runFunc executes name with stdin and returns captured output.
type runFunc func(ctx context.Context, name string, args []string, stdin string) (stdout, stderr []byte, err error)

type dmenuLikeBackend struct {
	command string
	kind    backendKind
	caps    Capabilities
	run     runFunc

	fuzzyMatching bool
}

var dmenuConstructors = map[string]func() Backend{
	"walker": NewWalkerBackend,
	"rofi":   NewRofiBackend,
	"fuzzel": NewFuzzelBackend,
	"wofi":   NewWofiBackend,
	"tofi":   NewTofiBackend,
	"dmenu":  NewDmenuBackend,
}

func NewWalkerBackend() Backend {
	return &dmenuLikeBackend{
		command: "walker",
		kind:    kindWalker,
		caps:    Capabilities{IndexOutput: true},
		run:     execRun,
	}
}

func NewRofiBackend() Backend {
	return &dmenuLikeBackend{
		command: "rofi",
		kind:    kindRofi,
		caps:    Capabilities{IndexOutput: true, FuzzyMatching: true},
		run:     execRun,
	}
}

func NewFuzzelBackend() Backend {
	return &dmenuLikeBackend{
		command: "fuzzel",
		kind:    kindFuzzel,
		caps:    Capabilities{IndexOutput: true},
		run:     execRun,
	}
}

func NewWofiBackend() Backend {
	return &dmenuLikeBackend{
		command: "wofi",
		kind:    kindWofi,
		run:     execRun,
	}
}

func NewTofiBackend() Backend {
	return &dmenuLikeBackend{
		command: "tofi",
		kind:    kindTofi,
		run:     execRun,
	}
}

func NewDmenuBackend() Backend {
	return &dmenuLikeBackend{
		command: "dmenu",
		kind:    kindDmenu,
		run:     execRun,
	}
}

func (b *dmenuLikeBackend) Name() string {
	return b.command
}

func (b *dmenuLikeBackend) Capabilities() Capabilities {
	return b.caps
}

// SetFuzzyMatching enables rofi's fuzzy matching mode when supported.
func (b *dmenuLikeBackend) SetFuzzyMatching(enabled bool) {
	b.fuzzyMatching = enabled
}

func (b *dmenuLikeBackend) Show(ctx context.Context, prompt string, lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("picker: no items to show")
	}

	input := formatInput(lines)
	args := b.buildArgs(prompt)

	out, stderr, err := b.run(ctx, b.command, args, input)
	selection := strings.TrimSpace(string(out))

	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrCancelled, b.command, ctx.Err())
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to run %s: %w", b.command, err)
		}
		// Any non-zero exit without a selection (Escape, Ctrl+C, closed window).
		if selection == "" {
			if msg := strings.TrimSpace(string(stderr)); msg != "" && !isCancelExit(err) {
				return "", fmt.Errorf("%w: %s exited %d: %s", ErrCancelled, b.command, exitErr.ExitCode(), msg)
			}
			return "", ErrCancelled
		}
	}

	if selection == "" {
		return "", ErrCancelled
	}
	return b.parseSelection(selection, lines)
}

func (b *dmenuLikeBackend) buildArgs(prompt string) []string {
	var args []string

	switch b.kind {
	case kindWalker:
		// -i reports the 0-based row index.
		args = []string{"-d", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}

	case kindRofi:
		args = []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		args = append(args, "-format", "i")
		args = append(args, "-no-custom")
		if b.fuzzyMatching {
			args = append(args, "-matching", "fuzzy")
		}

	case kindFuzzel:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
		args = append(args, "--index")

	case kindWofi:
		args = []string{"--dmenu", "--insensitive"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}

	case kindTofi:
		if prompt != "" {
			args = append(args, "--prompt-text", prompt)
		}

	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}

	return args
}

func (b *dmenuLikeBackend) parseSelection(selection string, lines []string) (string, error) {
	if !b.caps.IndexOutput {
		return selection, nil
	}
	idx, err := strconv.Atoi(selection)
	if err != nil {
		// Some builds ignore the index flag and echo the row.
		return selection, nil
	}
	if idx < 0 || idx >= len(lines) {
		return "", fmt.Errorf("%w: %s returned index %d but only %d rows were shown", ErrMalformedSelection, b.command, idx, len(lines))
	}
	return lines[idx], nil
}

func formatInput(lines []string) string {
	clean := make([]string, len(lines))
	for i, line := range lines {
		clean[i] = sanitize(line)
	}
	return strings.Join(clean, "\n")
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	code := exitErr.ExitCode()
	return code == 1 || code == 130
}

func execRun(ctx context.Context, name string, args []string, stdin string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	return out, stderr.Bytes(), err
}

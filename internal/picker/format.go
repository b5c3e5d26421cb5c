package picker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSelection is returned when a selected line does not carry an
// address token.
var ErrMalformedSelection = errors.New("malformed picker selection")

const (
	tokenOpen  = "["
	tokenClose = "]"
)

// Entry is one selectable minimized window.
type Entry struct {
	Address string
	Class   string
	Title   string
	Icon    string
}

// Format renders one line per entry: "<icon> <class> - <title> [<address>]".
// The trailing bracketed token is what ParseSelection recovers.
func Format(entries []Entry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, FormatEntry(e))
	}
	return lines
}

// FormatEntry renders a single entry.
func FormatEntry(e Entry) string {
	var sb strings.Builder
	if icon := sanitize(e.Icon); icon != "" {
		sb.WriteString(icon)
		sb.WriteString(" ")
	}
	class := sanitize(e.Class)
	if class == "" {
		class = "unknown"
	}
	sb.WriteString(class)
	if title := sanitize(e.Title); title != "" {
		sb.WriteString(" - ")
		sb.WriteString(title)
	}
	sb.WriteString(" ")
	sb.WriteString(tokenOpen)
	sb.WriteString(sanitize(e.Address))
	sb.WriteString(tokenClose)
	return sb.String()
}

// ParseSelection recovers the address embedded by FormatEntry.
func ParseSelection(line string) (string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasSuffix(line, tokenClose) {
		return "", fmt.Errorf("%w: %q", ErrMalformedSelection, line)
	}
	open := strings.LastIndex(line, tokenOpen)
	if open < 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedSelection, line)
	}
	address := strings.TrimSpace(line[open+len(tokenOpen) : len(line)-len(tokenClose)])
	if address == "" || strings.ContainsAny(address, tokenOpen+tokenClose+" ") {
		return "", fmt.Errorf("%w: %q", ErrMalformedSelection, line)
	}
	return address, nil
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	s = strings.ReplaceAll(s, "\x1f", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

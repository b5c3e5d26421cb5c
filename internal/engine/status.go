package engine

import (
	"fmt"
	"strings"
)

// StatusIcon is the glyph shown in the bar.
const StatusIcon = "\U000f0638"

// Status is the bar payload produced by "show".
type Status struct {
	Text       string `json:"text"`
	Alt        string `json:"alt"`
	Tooltip    string `json:"tooltip"`
	Class      string `json:"class"`
	Percentage int    `json:"percentage"`
	Count      int    `json:"-"`
}

// Status summarizes the minimized set. It only reads the store.
func (e *Engine) Status() Status {
	set := e.store.Load()
	n := len(set)
	if n == 0 {
		return Status{
			Text:    StatusIcon,
			Alt:     "empty",
			Tooltip: "No minimized windows",
			Class:   "empty",
		}
	}

	noun := "windows"
	if n == 1 {
		noun = "window"
	}
	lines := []string{fmt.Sprintf("%d minimized %s", n, noun)}
	for _, w := range set {
		line := e.cfg.IconFor(w.Class) + " " + w.Class
		if w.Title != "" {
			line += " - " + w.Title
		}
		lines = append(lines, line)
	}

	return Status{
		Text:       fmt.Sprintf("%s %d", StatusIcon, n),
		Alt:        "has-windows",
		Tooltip:    strings.Join(lines, "\n"),
		Class:      "has-windows",
		Percentage: min(n, 10) * 10,
		Count:      n,
	}
}

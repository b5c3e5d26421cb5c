package hypr

import (
	"strconv"
	"strings"
)

// WorkspaceRef is the workspace reference embedded in a client reply.
type WorkspaceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Window is a Hyprland client as reported by "hyprctl clients -j" and
// "hyprctl activewindow -j".
type Window struct {
	Address   string       `json:"address"`
	Class     string       `json:"class"`
	Title     string       `json:"title"`
	PID       int          `json:"pid"`
	Mapped    bool         `json:"mapped"`
	Hidden    bool         `json:"hidden"`
	Floating  bool         `json:"floating"`
	At        [2]int       `json:"at"`
	Size      [2]int       `json:"size"`
	Workspace WorkspaceRef `json:"workspace"`
}

// Workspace is a workspace as reported by "hyprctl workspaces -j".
type Workspace struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Monitor string `json:"monitor"`
	Windows int    `json:"windows"`
}

// IsSpecial reports whether the reference points at a special workspace.
// Named workspaces also carry negative ids, so the name decides.
func (r WorkspaceRef) IsSpecial() bool {
	if r.Name == "" {
		return r.ID < 0
	}
	return strings.HasPrefix(r.Name, "special:")
}

// Selector returns the dispatcher argument addressing the workspace.
// Hyprland reads a bare negative number as a relative move, so workspaces
// without a positive id are addressed by name.
func (w Workspace) Selector() string {
	if w.ID > 0 || w.Name == "" {
		return strconv.Itoa(w.ID)
	}
	return "name:" + w.Name
}

func (w Workspace) matches(other Workspace) bool {
	if w.ID > 0 || w.Name == "" {
		return other.ID == w.ID
	}
	return other.Name == w.Name
}

package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1 // window manager rejected a command, or an internal error
	exitUsage   = 2
	exitNothing = 3 // nothing to do: no focused window, empty set, cancelled picker
)

func main() {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(os.Args[1:]))
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) run(args []string) int {
	if len(args) == 0 {
		c.printMainUsage(c.stderr)
		return exitUsage
	}

	switch args[0] {
	case "minimize":
		return c.runMinimize(args[1:])
	case "restore":
		return c.runRestore(args[1:])
	case "restore-last":
		return c.runRestoreLast(args[1:])
	case "restore-all":
		return c.runRestoreAll(args[1:])
	case "show":
		return c.runShow(args[1:])
	case "list":
		return c.runList(args[1:])
	case "mcp":
		return c.runMCP(args[1:])
	case "help", "-h", "--help":
		c.printMainUsage(c.stdout)
		return exitOK
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n\n", args[0])
		c.printMainUsage(c.stderr)
		return exitUsage
	}
}

func (c *cli) printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: omaveil <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  minimize            Hide the focused window")
	fmt.Fprintln(w, "  restore [address]   Restore a window (picker when no address is given)")
	fmt.Fprintln(w, "  restore --match Q   Restore the window best matching Q")
	fmt.Fprintln(w, "  restore-last        Restore the most recently minimized window")
	fmt.Fprintln(w, "  restore-all         Restore every minimized window")
	fmt.Fprintln(w, "  show                Print status bar JSON")
	fmt.Fprintln(w, "  list                List minimized windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Exit status: 0 success, 1 rejected or failed, 2 usage, 3 nothing to do.")
	fmt.Fprintln(w, "Run 'omaveil <command> --help' for command-specific options.")
}

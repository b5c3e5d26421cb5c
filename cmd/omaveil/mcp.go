package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/omaveil/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: omaveil mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'omaveil mcp <command> --help' for command-specific options.")
}

func (c *cli) runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(c.stderr)
		return exitUsage
	}

	switch args[0] {
	case "serve":
		return c.runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(c.stdout)
		return exitOK
	default:
		fmt.Fprintf(c.stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(c.stderr)
		return exitUsage
	}
}

func (c *cli) runMCPServe(args []string) int {
	fs, common := newFlagSet("mcp serve", c.stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: omaveil mcp serve [options]")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Start the MCP server on stdio. Tools: minimize, restore, restore_last,")
		fmt.Fprintln(w, "restore_all, list_minimized, status.")
	})
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	a, code := c.setup(common)
	if a == nil {
		return code
	}
	defer a.close()

	if !a.wm.Available() {
		a.log.Warn("hyprctl not found in PATH; window tools will fail until it is available")
	}
	server := mcp.NewServer(a.engine, a.diag)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		a.log.Error("MCP server error", "err", err)
		return exitFailure
	}
	return exitOK
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/1broseidon/omaveil/internal/config"
	"github.com/1broseidon/omaveil/internal/engine"
	"github.com/1broseidon/omaveil/internal/store"
)

func (c *cli) runMinimize(args []string) int {
	fs, common := newFlagSet("minimize", c.stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: omaveil minimize [options]")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Hide the focused window in the special workspace.")
	})
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(c.stderr, "minimize takes no arguments")
		return exitUsage
	}

	a, code := c.setup(common)
	if a == nil {
		return code
	}
	defer a.close()

	rec, err := a.engine.Minimize(context.Background())
	if err == nil {
		a.log.Debug("minimized", "address", rec.Address, "workspace", rec.OriginalWorkspace)
	}
	return a.finish("minimize", err)
}

func (c *cli) runRestore(args []string) int {
	fs, common := newFlagSet("restore", c.stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: omaveil restore [options] [address]")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Restore a minimized window. Without an address a picker is shown.")
	})
	match := fs.String("match", "", "Restore the window whose class and title best match this query")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 || (fs.NArg() == 1 && *match != "") {
		fmt.Fprintln(c.stderr, "restore takes either one address or --match")
		fs.Usage()
		return exitUsage
	}

	a, code := c.setup(common)
	if a == nil {
		return code
	}
	defer a.close()

	ctx := context.Background()
	var err error
	switch {
	case fs.NArg() == 1:
		_, err = a.engine.Restore(ctx, fs.Arg(0))
	case *match != "":
		_, err = a.engine.RestoreMatch(ctx, *match)
	default:
		if len(a.engine.List()) == 0 {
			return a.finish("restore", engine.ErrNothingToRestore)
		}
		if perr := a.withPicker(); perr != nil {
			return a.finish("restore", perr)
		}
		_, err = a.engine.RestorePick(ctx)
	}
	return a.finish("restore", err)
}

func (c *cli) runRestoreLast(args []string) int {
	fs, common := newFlagSet("restore-last", c.stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: omaveil restore-last [options]")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Restore the most recently minimized window.")
	})
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	a, code := c.setup(common)
	if a == nil {
		return code
	}
	defer a.close()

	_, err := a.engine.RestoreLast(context.Background())
	return a.finish("restore-last", err)
}

func (c *cli) runRestoreAll(args []string) int {
	fs, common := newFlagSet("restore-all", c.stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: omaveil restore-all [options]")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Restore every minimized window, oldest first.")
	})
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	a, code := c.setup(common)
	if a == nil {
		return code
	}
	defer a.close()

	restored, err := a.engine.RestoreAll(context.Background())
	a.log.Debug("restore-all finished", "restored", len(restored))
	return a.finish("restore-all", err)
}

// runShow prints the bar payload. It never contacts the window manager and
// always exits 0.
func (c *cli) runShow(args []string) int {
	fs, common := newFlagSet("show", c.stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: omaveil show [options]")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Print a single JSON line for a status bar custom module.")
	})
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg := config.DefaultConfig()
	if res, err := loadConfig(common.configPath); err != nil {
		slog.New(slog.NewTextHandler(c.stderr, nil)).Warn("using default config", "err", err)
	} else {
		cfg = res.Config
	}
	status := engine.Status{Text: engine.StatusIcon, Alt: "empty", Tooltip: "No minimized windows", Class: "empty"}
	if a, err := newAppWithConfig(cfg, common.verbose, c.stderr); err == nil {
		defer a.close()
		status = a.engine.Status()
	}

	data, err := json.Marshal(status)
	if err != nil {
		return exitOK
	}
	fmt.Fprintln(c.stdout, string(data))
	return exitOK
}

func (c *cli) runList(args []string) int {
	fs, common := newFlagSet("list", c.stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: omaveil list [options]")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "List minimized windows, oldest first.")
	})
	asJSON := fs.Bool("json", false, "Print the set as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(c.stderr, "list takes no arguments")
		fs.Usage()
		return exitUsage
	}

	a, code := c.setup(common)
	if a == nil {
		return code
	}
	defer a.close()

	set := a.engine.List()
	if *asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(set); err != nil {
			return a.finish("list", err)
		}
		return exitOK
	}
	if len(set) == 0 {
		fmt.Fprintln(c.stdout, "No minimized windows")
		return exitOK
	}
	printList(c.stdout, set, a.cfg)
	return exitOK
}

func printList(w io.Writer, set store.Set, cfg *config.Config) {
	for _, win := range set {
		ws := strconv.Itoa(win.OriginalWorkspace)
		if win.OriginalWorkspaceName != "" && win.OriginalWorkspaceName != ws {
			ws += " (" + win.OriginalWorkspaceName + ")"
		}
		when := time.Unix(0, win.MinimizedAt).Format("15:04:05")
		fmt.Fprintf(w, "- %s %s - %s [%s] workspace=%s minimized=%s\n", cfg.IconFor(win.Class), win.Class, win.Title, win.Address, ws, when)
	}
}

// setup builds the app or reports why it could not.
func (c *cli) setup(common *commonFlags) (*app, int) {
	a, err := newApp(common, c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return nil, exitFailure
	}
	return a, exitOK
}

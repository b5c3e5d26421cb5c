package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/1broseidon/omaveil/internal/config"
	"github.com/1broseidon/omaveil/internal/diag"
	"github.com/1broseidon/omaveil/internal/engine"
	"github.com/1broseidon/omaveil/internal/hypr"
	"github.com/1broseidon/omaveil/internal/picker"
	"github.com/1broseidon/omaveil/internal/runtimepath"
	"github.com/1broseidon/omaveil/internal/store"
)

// commonFlags are accepted by every verb.
type commonFlags struct {
	configPath string
	verbose    bool
}

func newFlagSet(name string, stderr io.Writer, usage func(w io.Writer)) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		usage(stderr)
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}
	common := &commonFlags{}
	fs.StringVar(&common.configPath, "config", "", "Path to config file (default: ~/.config/omaveil/config.yaml)")
	fs.BoolVar(&common.verbose, "v", false, "Verbose output on stderr")
	return fs, common
}

// parseFlags returns the exit code to use when parsing ends the command.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitUsage, false
	}
	return 0, true
}

// app holds the collaborators shared by every verb.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	diag   *diag.Logger
	store  *store.Store
	wm     *hypr.Client
	engine *engine.Engine
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func newApp(common *commonFlags, stderr io.Writer) (*app, error) {
	res, err := loadConfig(common.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a, err := newAppWithConfig(res.Config, common.verbose, stderr)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		a.log.Warn(w, "config", res.File)
	}
	return a, nil
}

func newAppWithConfig(cfg *config.Config, verbose bool, stderr io.Writer) (*app, error) {
	logCfg := cfg.GetLoggingConfig()
	logger := newLogger(stderr, logCfg.Level, verbose)

	a := &app{cfg: cfg, log: logger}

	logPath := logCfg.File
	if logPath == "" {
		p, err := runtimepath.LogPath()
		if err != nil {
			return nil, err
		}
		logPath = p
	}
	d, err := diag.New(diag.Config{
		FilePath:  logPath,
		MaxSizeMB: logCfg.MaxSizeMB,
		MaxFiles:  logCfg.MaxFiles,
	})
	if err != nil {
		logger.Warn("diagnostics log unavailable", "path", logPath, "err", err)
	}
	a.diag = d

	statePath, err := runtimepath.StatePath()
	if err != nil {
		return nil, err
	}
	a.store = store.New(statePath, store.WithCorruptionReporter(a.reportCorruption))
	a.wm = hypr.NewClient(hypr.WithTimeout(cfg.CommandTimeout))
	a.engine = engine.New(a.wm, a.store, cfg, engine.WithReporter(a.diag))
	return a, nil
}

// withPicker rebuilds the engine with the configured picker backend.
func (a *app) withPicker() error {
	backend, err := picker.NewBackend(a.cfg.Picker)
	if err != nil {
		return err
	}
	if fz, ok := backend.(interface{ SetFuzzyMatching(bool) }); ok {
		fz.SetFuzzyMatching(a.cfg.PickerFuzzyMatching)
	}
	a.log.Debug("picker selected", "backend", backend.Name())
	adapter := picker.NewAdapter(backend, a.cfg.PickerPrompt, a.cfg.PickerTimeout)
	a.engine = engine.New(a.wm, a.store, a.cfg, engine.WithReporter(a.diag), engine.WithPicker(adapter))
	return nil
}

func (a *app) close() {
	if err := a.diag.Close(); err != nil {
		a.log.Debug("failed to close diagnostics log", "err", err)
	}
}

func (a *app) reportCorruption(path string, err error) {
	a.log.Warn("state file unreadable, treating as empty", "path", path, "err", err)
	a.diag.Log(diag.KindCorruption, "state file unreadable, treating as empty", map[string]interface{}{
		"path":  path,
		"error": err.Error(),
	})
}

// finish maps an engine outcome onto an exit code and records loggable
// failures.
func (a *app) finish(verb string, err error) int {
	switch engine.Classify(err) {
	case engine.ClassOK:
		return exitOK

	case engine.ClassBenign:
		if errors.Is(err, picker.ErrMalformedSelection) {
			a.diag.Log(diag.KindSelection, err.Error(), map[string]interface{}{"verb": verb})
		}
		a.log.Info(err.Error(), "verb", verb)
		return exitNothing

	default:
		engine.ReportFailure(a.diag, err, map[string]interface{}{"verb": verb})
		a.log.Error(err.Error(), "verb", verb)
		return exitFailure
	}
}

func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	lvl := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

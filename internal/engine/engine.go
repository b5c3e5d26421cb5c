// Package engine implements the minimize/restore state machine on top of the
// window manager client and the state store.
//
// A record is appended only after the window manager confirms the hide, and a
// record is removed before the window is moved back, so a failed restore never
// leaves the window tracked.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sahilm/fuzzy"

	"github.com/1broseidon/omaveil/internal/config"
	"github.com/1broseidon/omaveil/internal/diag"
	"github.com/1broseidon/omaveil/internal/hypr"
	"github.com/1broseidon/omaveil/internal/picker"
	"github.com/1broseidon/omaveil/internal/store"
)

// WindowManager is the subset of the hyprctl client the engine needs.
type WindowManager interface {
	FocusedWindow(ctx context.Context) (hypr.Window, error)
	ActiveWorkspace(ctx context.Context) (hypr.Workspace, error)
	MoveToSpecial(ctx context.Context, address string, special string) error
	MoveToWorkspace(ctx context.Context, address string, workspace hypr.Workspace) error
	FocusWindow(ctx context.Context, address string) error
	WindowExists(ctx context.Context, address string) bool
	WorkspaceExists(ctx context.Context, workspace hypr.Workspace) bool
}

// Store is the state store contract.
type Store interface {
	Load() store.Set
	Append(w store.Window) (store.Window, error)
	Remove(address string) (store.Window, error)
	Drain() ([]store.Window, error)
}

// Picker presents entries and returns the chosen address.
type Picker interface {
	Pick(ctx context.Context, entries []picker.Entry) (string, error)
}

// Reporter receives diagnostics for guarded conditions the engine absorbs.
type Reporter interface {
	Log(kind diag.Kind, msg string, details map[string]interface{})
}

// Restored describes one window brought back.
type Restored struct {
	Window        store.Window
	Workspace     int
	WorkspaceName string
	// Fallback is set when the original workspace could not be used.
	Fallback bool
}

// Engine runs minimize and restore operations.
type Engine struct {
	wm       WindowManager
	store    Store
	cfg      *config.Config
	picker   Picker
	reporter Reporter
}

// Option configures an Engine.
type Option func(*Engine)

// WithPicker sets the picker used by RestorePick.
func WithPicker(p Picker) Option {
	return func(e *Engine) {
		e.picker = p
	}
}

// WithReporter sets the diagnostics sink.
func WithReporter(r Reporter) Option {
	return func(e *Engine) {
		e.reporter = r
	}
}

// New creates an engine. A nil cfg uses config.DefaultConfig.
func New(wm WindowManager, st Store, cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Engine{wm: wm, store: st, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Minimize hides the focused window and records it.
func (e *Engine) Minimize(ctx context.Context) (store.Window, error) {
	win, err := e.wm.FocusedWindow(ctx)
	if err != nil {
		if errors.Is(err, hypr.ErrNoFocusedWindow) {
			return store.Window{}, ErrNothingToMinimize
		}
		return store.Window{}, fmt.Errorf("failed to query focused window: %w", err)
	}
	if win.Address == "" {
		return store.Window{}, ErrNothingToMinimize
	}
	if e.cfg.IsIgnoredClass(win.Class) {
		return store.Window{}, fmt.Errorf("%w: class %q is ignored", ErrNothingToMinimize, win.Class)
	}
	if win.Workspace.Name == "special:"+e.cfg.SpecialWorkspace {
		return store.Window{}, fmt.Errorf("%w: %s is already hidden", ErrNothingToMinimize, win.Address)
	}

	rec := store.Window{
		Address: win.Address,
		Class:   win.Class,
		Title:   win.Title,
	}
	if ref := win.Workspace; !ref.IsSpecial() && (ref.ID > 0 || ref.Name != "") {
		rec.OriginalWorkspace = ref.ID
		rec.OriginalWorkspaceName = ref.Name
	} else {
		ws, err := e.wm.ActiveWorkspace(ctx)
		if err != nil {
			return store.Window{}, fmt.Errorf("failed to query active workspace: %w", err)
		}
		rec.OriginalWorkspace = ws.ID
		rec.OriginalWorkspaceName = ws.Name
	}

	if err := e.wm.MoveToSpecial(ctx, win.Address, e.cfg.SpecialWorkspace); err != nil {
		return store.Window{}, fmt.Errorf("failed to hide %s: %w", win.Address, err)
	}

	added, err := e.store.Append(rec)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateAddress) {
			e.report(diag.KindDuplicate, "window already tracked", map[string]interface{}{
				"address": rec.Address,
				"class":   rec.Class,
			})
			return rec, nil
		}
		return store.Window{}, fmt.Errorf("window %s hidden but not recorded: %w", win.Address, err)
	}
	return added, nil
}

// Restore brings back the window with the given address.
func (e *Engine) Restore(ctx context.Context, address string) (Restored, error) {
	rec, err := e.store.Remove(address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Restored{}, fmt.Errorf("%w: %s", ErrNotMinimized, address)
		}
		return Restored{}, err
	}
	return e.bringBack(ctx, rec)
}

// RestoreLast restores the most recently minimized window.
func (e *Engine) RestoreLast(ctx context.Context) (Restored, error) {
	last, ok := e.store.Load().Last()
	if !ok {
		return Restored{}, ErrNothingToRestore
	}
	return e.Restore(ctx, last.Address)
}

// RestoreAll drains the set and restores every record oldest first. Failures
// do not stop the batch; they are returned together as a *BatchError.
func (e *Engine) RestoreAll(ctx context.Context) ([]Restored, error) {
	drained, err := e.store.Drain()
	if err != nil {
		return nil, err
	}
	if len(drained) == 0 {
		return nil, ErrNothingToRestore
	}

	var restored []Restored
	batch := &BatchError{Attempted: len(drained)}
	for _, rec := range drained {
		r, err := e.bringBack(ctx, rec)
		if err != nil {
			batch.Failures = append(batch.Failures, RecordError{Window: rec, Err: err})
			continue
		}
		restored = append(restored, r)
	}
	if len(batch.Failures) > 0 {
		return restored, batch
	}
	return restored, nil
}

// RestorePick lets the user choose a window through the picker.
func (e *Engine) RestorePick(ctx context.Context) (Restored, error) {
	if e.picker == nil {
		return Restored{}, ErrNoPicker
	}
	set := e.store.Load()
	if len(set) == 0 {
		return Restored{}, ErrNothingToRestore
	}

	address, err := e.picker.Pick(ctx, e.Entries(set))
	if err != nil {
		return Restored{}, err
	}
	return e.Restore(ctx, address)
}

// RestoreMatch restores the record whose address equals query, or otherwise
// the best fuzzy match of query against "class title".
func (e *Engine) RestoreMatch(ctx context.Context, query string) (Restored, error) {
	set := e.store.Load()
	if len(set) == 0 {
		return Restored{}, ErrNothingToRestore
	}
	if set.Index(query) >= 0 {
		return e.Restore(ctx, query)
	}

	candidates := make([]string, len(set))
	for i, w := range set {
		candidates[i] = w.Class + " " + w.Title
	}
	matches := fuzzy.Find(query, candidates)
	if len(matches) == 0 {
		return Restored{}, fmt.Errorf("%w: no window matches %q", ErrNotMinimized, query)
	}
	return e.Restore(ctx, set[matches[0].Index].Address)
}

// List returns the current set without modifying it.
func (e *Engine) List() store.Set {
	return e.store.Load()
}

// Entries converts records to picker entries.
func (e *Engine) Entries(set store.Set) []picker.Entry {
	entries := make([]picker.Entry, 0, len(set))
	for _, w := range set {
		entries = append(entries, picker.Entry{
			Address: w.Address,
			Class:   w.Class,
			Title:   w.Title,
			Icon:    e.cfg.IconFor(w.Class),
		})
	}
	return entries
}

func (e *Engine) bringBack(ctx context.Context, rec store.Window) (Restored, error) {
	target, fallback, err := e.targetWorkspace(ctx, rec)
	if err != nil {
		return Restored{}, err
	}
	if err := e.wm.MoveToWorkspace(ctx, rec.Address, target); err != nil {
		return Restored{}, fmt.Errorf("failed to move %s to workspace %s: %w", rec.Address, target.Selector(), err)
	}
	if err := e.wm.FocusWindow(ctx, rec.Address); err != nil {
		return Restored{}, fmt.Errorf("failed to focus %s: %w", rec.Address, err)
	}
	return Restored{Window: rec, Workspace: target.ID, WorkspaceName: target.Name, Fallback: fallback}, nil
}

// targetWorkspace picks where a restored window goes. The original workspace
// is used only when the window still exists and the workspace still resolves.
func (e *Engine) targetWorkspace(ctx context.Context, rec store.Window) (hypr.Workspace, bool, error) {
	original := hypr.Workspace{ID: rec.OriginalWorkspace, Name: rec.OriginalWorkspaceName}
	if e.cfg.RestoreTo != config.RestoreToActive && (original.ID > 0 || original.Name != "") {
		if e.wm.WindowExists(ctx, rec.Address) && e.workspaceResolves(ctx, original) {
			return original, false, nil
		}
	}

	ws, err := e.wm.ActiveWorkspace(ctx)
	if err != nil {
		return hypr.Workspace{}, false, fmt.Errorf("failed to query active workspace: %w", err)
	}
	fallback := e.cfg.RestoreTo != config.RestoreToActive
	return ws, fallback, nil
}

// workspaceResolves reports whether the original workspace can be targeted.
// Numbered workspaces are recreated by Hyprland on demand; named ones are
// only valid while they exist.
func (e *Engine) workspaceResolves(ctx context.Context, ws hypr.Workspace) bool {
	if e.wm.WorkspaceExists(ctx, ws) {
		return true
	}
	return ws.ID > 0 && (ws.Name == "" || ws.Name == strconv.Itoa(ws.ID))
}

func (e *Engine) report(kind diag.Kind, msg string, details map[string]interface{}) {
	if e.reporter != nil {
		e.reporter.Log(kind, msg, details)
	}
}

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "omaveil", "windows.json"), opts...)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	reported := false
	s := newTestStore(t, WithCorruptionReporter(func(string, error) { reported = true }))

	set := s.Load()
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %d records", len(set))
	}
	if reported {
		t.Fatalf("missing file must not be reported as corruption")
	}
}

func TestLoad_CorruptFileIsEmptyAndReported(t *testing.T) {
	var gotPath string
	var gotErr error
	s := newTestStore(t, WithCorruptionReporter(func(path string, err error) {
		gotPath, gotErr = path, err
	}))
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte(`[{"address":"0x1",`), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	set := s.Load()
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %#v", set)
	}
	if gotErr == nil || gotPath != s.Path() {
		t.Fatalf("expected corruption report for %q, got path=%q err=%v", s.Path(), gotPath, gotErr)
	}
}

func TestLoad_EmptyFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte("\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if set := s.Load(); len(set) != 0 {
		t.Fatalf("expected empty set, got %#v", set)
	}
}

func TestSaveLoad_RoundTripIsFixedPoint(t *testing.T) {
	s := newTestStore(t)
	want := Set{
		{Address: "0xa", OriginalWorkspace: 1, Class: "kitty", Title: "zsh", MinimizedAt: 1},
		{Address: "0xb", OriginalWorkspace: 2, OriginalWorkspaceName: "web", Class: "firefox", Title: "News \"quoted\"", MinimizedAt: 2},
		{Address: "0xc", OriginalWorkspace: 3, Class: "code", Title: "main.go — ünïcode", MinimizedAt: 3},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first := s.Load()
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("Load after Save mismatch:\n got %#v\nwant %#v", first, want)
	}
	if err := s.Save(first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second := s.Load(); !reflect.DeepEqual(second, first) {
		t.Fatalf("save(load()) is not a fixed point:\n got %#v\nwant %#v", second, first)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Set{{Address: "0x1", MinimizedAt: 1}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" && e.Name() != "windows.json.lock" {
			t.Fatalf("unexpected leftover file %q", e.Name())
		}
	}
}

func TestAppend_RejectsDuplicateAddress(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Append(Window{Address: "0x1", Class: "kitty"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, err := s.Append(Window{Address: "0x1", Class: "kitty"})
	if !errors.Is(err, ErrDuplicateAddress) {
		t.Fatalf("expected ErrDuplicateAddress, got %v", err)
	}
	if set := s.Load(); len(set) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(set))
	}
}

func TestAppend_MinimizedAtStrictlyIncreases(t *testing.T) {
	fixed := time.Unix(100, 0)
	s := newTestStore(t, WithClock(func() time.Time { return fixed }))

	a, err := s.Append(Window{Address: "0xa"})
	if err != nil {
		t.Fatalf("Append a: %v", err)
	}
	b, err := s.Append(Window{Address: "0xb"})
	if err != nil {
		t.Fatalf("Append b: %v", err)
	}
	if b.MinimizedAt <= a.MinimizedAt {
		t.Fatalf("expected b after a, got a=%d b=%d", a.MinimizedAt, b.MinimizedAt)
	}
	last, ok := s.Load().Last()
	if !ok || last.Address != "0xb" {
		t.Fatalf("expected last to be 0xb, got %#v", last)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	for i, addr := range []string{"0xa", "0xb", "0xc"} {
		if _, err := s.Append(Window{Address: addr, MinimizedAt: int64(i + 1)}); err != nil {
			t.Fatalf("Append %s: %v", addr, err)
		}
	}

	removed, err := s.Remove("0xb")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.Address != "0xb" {
		t.Fatalf("removed wrong record %#v", removed)
	}

	set := s.Load()
	if len(set) != 2 || set[0].Address != "0xa" || set[1].Address != "0xc" {
		t.Fatalf("unexpected remaining set %#v", set)
	}

	if _, err := s.Remove("0xb"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove_NotFoundLeavesFileUntouched(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Remove("0xnope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected no state file after failed remove, stat err = %v", err)
	}
}

func TestDrain_ReturnsInsertionOrderAndEmpties(t *testing.T) {
	s := newTestStore(t)
	for i, addr := range []string{"0xa", "0xb", "0xc"} {
		if _, err := s.Append(Window{Address: addr, MinimizedAt: int64(10 - i)}); err != nil {
			t.Fatalf("Append %s: %v", addr, err)
		}
	}

	drained, err := s.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	var got []string
	for _, w := range drained {
		got = append(got, w.Address)
	}
	if !reflect.DeepEqual(got, []string{"0xa", "0xb", "0xc"}) {
		t.Fatalf("unexpected drain order %v", got)
	}
	if set := s.Load(); len(set) != 0 {
		t.Fatalf("expected empty set after drain, got %#v", set)
	}
}

func TestLast_SelectsMaximumMinimizedAt(t *testing.T) {
	set := Set{
		{Address: "A", MinimizedAt: 1},
		{Address: "C", MinimizedAt: 3},
		{Address: "B", MinimizedAt: 2},
	}
	last, ok := set.Last()
	if !ok || last.Address != "C" {
		t.Fatalf("expected C, got %#v", last)
	}
	if _, ok := (Set{}).Last(); ok {
		t.Fatalf("expected no last record for empty set")
	}
}

func TestLoad_DropsDuplicateAndEmptyAddresses(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Set{
		{Address: "0x1", Title: "first", MinimizedAt: 1},
		{Address: "", Title: "blank", MinimizedAt: 2},
		{Address: "0x1", Title: "dup", MinimizedAt: 3},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	set := s.Load()
	if len(set) != 1 || set[0].Title != "first" {
		t.Fatalf("unexpected normalized set %#v", set)
	}
}

func TestAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	s := newTestStore(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each writer uses its own Store value, like separate processes.
			other := New(s.Path())
			if _, err := other.Append(Window{Address: fmt.Sprintf("0x%02d", i)}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Append: %v", err)
	}

	if set := s.Load(); len(set) != n {
		t.Fatalf("expected %d records, got %d", n, len(set))
	}
}

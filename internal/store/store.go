// Package store owns the on-disk record of minimized windows.
//
// The record is a JSON array kept in a session-scoped directory. Every
// mutation is a read-modify-write performed under an exclusive advisory lock
// and committed with an atomic rename, so concurrent invocations never see a
// partially written file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrDuplicateAddress is returned by Append when the address is already tracked.
	ErrDuplicateAddress = errors.New("window already minimized")
	// ErrNotFound is returned by Remove when the address is not tracked.
	ErrNotFound = errors.New("window not minimized")
)

// Window is one hidden window.
type Window struct {
	Address               string `json:"address"`
	OriginalWorkspace     int    `json:"original_workspace"`
	OriginalWorkspaceName string `json:"original_workspace_name,omitempty"`
	Class                 string `json:"class"`
	Title                 string `json:"title"`
	MinimizedAt           int64  `json:"minimized_at"`
}

// Set is the persisted collection, oldest first.
type Set []Window

// Index returns the position of address, or -1.
func (s Set) Index(address string) int {
	for i, w := range s {
		if w.Address == address {
			return i
		}
	}
	return -1
}

// Last returns the record with the highest MinimizedAt. Ties resolve to the
// later insertion.
func (s Set) Last() (Window, bool) {
	if len(s) == 0 {
		return Window{}, false
	}
	best := 0
	for i := 1; i < len(s); i++ {
		if s[i].MinimizedAt >= s[best].MinimizedAt {
			best = i
		}
	}
	return s[best], true
}

// CorruptionReporter is told when the backing file could not be read or
// parsed. The store then continues with an empty set.
type CorruptionReporter func(path string, err error)

// Store mediates all access to the state file.
type Store struct {
	path      string
	onCorrupt CorruptionReporter
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCorruptionReporter installs a callback for unreadable state.
func WithCorruptionReporter(fn CorruptionReporter) Option {
	return func(s *Store) {
		s.onCorrupt = fn
	}
}

// WithClock overrides the time source used for MinimizedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store backed by path. Nothing is read or created until the
// first operation.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current set. A missing file is an empty set. Unreadable or
// malformed content is reported and also treated as empty.
func (s *Store) Load() Set {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}
		}
		s.reportCorrupt(fmt.Errorf("failed to read state: %w", err))
		return Set{}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Set{}
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		s.reportCorrupt(fmt.Errorf("failed to parse state: %w", err))
		return Set{}
	}
	return normalize(set)
}

// Save replaces the backing file with set.
func (s *Store) Save(set Set) error {
	if set == nil {
		set = Set{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp-" + strconv.Itoa(os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize state %q: %w", s.path, err)
	}
	return nil
}

// Append adds w to the end of the set. MinimizedAt is assigned when zero and
// always kept strictly above every existing record.
func (s *Store) Append(w Window) (Window, error) {
	var added Window
	err := s.update(func(set Set) (Set, error) {
		if set.Index(w.Address) >= 0 {
			return nil, ErrDuplicateAddress
		}
		if w.MinimizedAt == 0 {
			w.MinimizedAt = s.now().UnixNano()
		}
		if last, ok := set.Last(); ok && w.MinimizedAt <= last.MinimizedAt {
			w.MinimizedAt = last.MinimizedAt + 1
		}
		added = w
		return append(set, w), nil
	})
	if err != nil {
		return Window{}, err
	}
	return added, nil
}

// Remove deletes and returns the record for address.
func (s *Store) Remove(address string) (Window, error) {
	var removed Window
	err := s.update(func(set Set) (Set, error) {
		idx := set.Index(address)
		if idx < 0 {
			return nil, ErrNotFound
		}
		removed = set[idx]
		return append(set[:idx:idx], set[idx+1:]...), nil
	})
	if err != nil {
		return Window{}, err
	}
	return removed, nil
}

// Drain removes and returns every record in insertion order.
func (s *Store) Drain() ([]Window, error) {
	var drained []Window
	err := s.update(func(set Set) (Set, error) {
		drained = append([]Window(nil), set...)
		return Set{}, nil
	})
	if err != nil {
		return nil, err
	}
	return drained, nil
}

// update runs fn against a fresh Load under an exclusive lock and commits the
// result. When fn fails nothing is written.
func (s *Store) update(fn func(Set) (Set, error)) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	next, err := fn(s.Load())
	if err != nil {
		return err
	}
	return s.Save(next)
}

func (s *Store) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open state lock: %w", err)
	}
	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock state: %w", err)
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

func (s *Store) reportCorrupt(err error) {
	if s.onCorrupt != nil {
		s.onCorrupt(s.path, err)
	}
}

// normalize drops records without an address and later duplicates, which can
// only appear if the file was edited by hand.
func normalize(set Set) Set {
	out := make(Set, 0, len(set))
	seen := make(map[string]struct{}, len(set))
	for _, w := range set {
		if w.Address == "" {
			continue
		}
		if _, ok := seen[w.Address]; ok {
			continue
		}
		seen[w.Address] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Package diag writes the append-only failure log. Successful operations are
// never recorded here; the file is a trace of rejections and corruption only.
package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Kind names the failure being recorded.
type Kind string

const (
	KindRejected   Kind = "REJECTED"
	KindCorruption Kind = "CORRUPTION"
	KindInternal   Kind = "INTERNAL"
	KindSelection  Kind = "SELECTION"
	KindDuplicate  Kind = "DUPLICATE"
)

// Config holds configuration for the diagnostics logger.
type Config struct {
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// Logger appends timestamped failure lines.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
	now func() time.Time
}

// New creates a logger writing to cfg.FilePath. The log file itself is opened
// lazily by lumberjack on the first write.
func New(cfg Config) (*Logger, error) {
	if strings.TrimSpace(cfg.FilePath) == "" {
		return nil, fmt.Errorf("diagnostics log path is required")
	}
	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return &Logger{
		out: &lj.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    valOr(cfg.MaxSizeMB, 1),
			MaxBackups: valOr(cfg.MaxFiles, 2),
		},
		now: time.Now,
	}, nil
}

// NewWriter wraps an arbitrary writer. Used by tests and by callers that
// want failures on stderr.
func NewWriter(w io.Writer) *Logger {
	return &Logger{out: nopCloser{w}, now: time.Now}
}

// Log records one failure line. Details are written in sorted key order.
func (l *Logger) Log(kind Kind, msg string, details map[string]interface{}) {
	if l == nil {
		return
	}

	timestamp := l.now().Format("2006-01-02 15:04:05")
	var sb strings.Builder
	sb.WriteString(timestamp)
	sb.WriteString(" [")
	sb.WriteString(string(kind))
	sb.WriteString("] ")
	sb.WriteString(flatten(msg))

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			switch val := details[k].(type) {
			case string:
				sb.WriteString(fmt.Sprintf(" %s=%q", k, val))
			case []string:
				sb.WriteString(fmt.Sprintf(" %s=%q", k, strings.Join(val, " ")))
			default:
				sb.WriteString(fmt.Sprintf(" %s=%v", k, val))
			}
		}
	}
	sb.WriteString("\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return
	}
	if _, err := io.WriteString(l.out, sb.String()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write diagnostics entry: %v\n", err)
	}
}

// Close releases the underlying file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

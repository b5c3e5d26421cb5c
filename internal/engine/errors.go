package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/omaveil/internal/diag"
	"github.com/1broseidon/omaveil/internal/hypr"
	"github.com/1broseidon/omaveil/internal/picker"
	"github.com/1broseidon/omaveil/internal/store"
)

var (
	// ErrNothingToMinimize is returned when no eligible window has focus.
	ErrNothingToMinimize = errors.New("nothing to minimize")
	// ErrNothingToRestore is returned when the minimized set is empty.
	ErrNothingToRestore = errors.New("nothing to restore")
	// ErrNotMinimized is returned when the requested window is not tracked.
	ErrNotMinimized = errors.New("window is not minimized")
	// ErrNoPicker is returned by RestorePick when no picker was configured.
	ErrNoPicker = errors.New("no picker configured")
)

// Class groups outcomes for exit codes and diagnostics.
type Class int

const (
	ClassOK Class = iota
	ClassBenign
	ClassRejected
	ClassInternal
)

func (c Class) String() string {
	switch c {
	case ClassOK:
		return "ok"
	case ClassBenign:
		return "benign"
	case ClassRejected:
		return "rejected"
	default:
		return "internal"
	}
}

// Classify maps an engine error onto its outcome class.
func Classify(err error) Class {
	if err == nil {
		return ClassOK
	}
	switch {
	case errors.Is(err, ErrNothingToMinimize),
		errors.Is(err, ErrNothingToRestore),
		errors.Is(err, ErrNotMinimized),
		errors.Is(err, picker.ErrCancelled),
		errors.Is(err, picker.ErrMalformedSelection):
		return ClassBenign
	}
	var rej *hypr.RejectedError
	if errors.As(err, &rej) {
		return ClassRejected
	}
	return ClassInternal
}

// RecordError is the failure of one record within a batch.
type RecordError struct {
	Window store.Window
	Err    error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Window.Address, e.Window.Class, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// BatchError collects every per-record failure of RestoreAll.
type BatchError struct {
	Attempted int
	Failures  []RecordError
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d of %d windows failed to restore: %s", len(e.Failures), e.Attempted, strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// ReportFailure writes one diagnostics line per failure in err. A batch is
// expanded into its records. Rejected commands carry the command line and
// both output streams. Successful and benign outcomes are not reported.
func ReportFailure(r Reporter, err error, details map[string]interface{}) {
	if r == nil {
		return
	}
	var batch *BatchError
	if errors.As(err, &batch) {
		for _, f := range batch.Failures {
			d := cloneDetails(details)
			d["address"] = f.Window.Address
			d["class"] = f.Window.Class
			reportOne(r, f.Err, d)
		}
		return
	}
	reportOne(r, err, cloneDetails(details))
}

func reportOne(r Reporter, err error, details map[string]interface{}) {
	kind := diag.KindInternal
	switch Classify(err) {
	case ClassOK, ClassBenign:
		return
	case ClassRejected:
		kind = diag.KindRejected
	}
	var rej *hypr.RejectedError
	if errors.As(err, &rej) {
		details["command"] = rej.Command
		details["stdout"] = strings.TrimSpace(rej.Stdout)
		details["stderr"] = strings.TrimSpace(rej.Stderr)
	}
	r.Log(kind, err.Error(), details)
}

func cloneDetails(details map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(details)+5)
	for k, v := range details {
		out[k] = v
	}
	return out
}

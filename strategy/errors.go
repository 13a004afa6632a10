package strategy

import (
	"errors"
	"fmt"
)

// ErrCanceled is returned when an abort (or parent context cancellation) is
// observed at a run checkpoint. It rejects the deferred result of a
// streaming run and is handed to the error hook.
var ErrCanceled = errors.New("strategy: run canceled")

// ErrNoResult is returned if a strategy loop exits without ever producing an
// inference result. This indicates a configuration contract violation, not
// a runtime condition callers should branch on.
var ErrNoResult = errors.New("strategy: no inference result produced")

// PlanParseError is the fatal error raised when the planning call's output
// contains no parseable step list.
type PlanParseError struct {
	Raw string // the response text the parser inspected
	Err error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("strategy: failed to parse plan from model output: %v", e.Err)
}

func (e *PlanParseError) Unwrap() error { return e.Err }

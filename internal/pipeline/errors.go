package pipeline

import (
	"errors"
	"fmt"
)

// ErrTableNotPublished indicates a stage read a table that no prior stage
// has published.
var ErrTableNotPublished = errors.New("table not published")

// StageError wraps a stage failure with the stage that produced it. The
// run aborts without advancing downstream stages; previously published
// tables remain untouched.
type StageError struct {
	StageID string
	Err     error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.StageID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/rewrite/internal/engine/history"
)

// Errors returned by engine operations.
var (
	// ErrProcessorDone indicates a processor was used after Perform.
	ErrProcessorDone = errors.New("processor already performed")

	// ErrAlreadyAdded indicates the same tree was added twice.
	ErrAlreadyAdded = errors.New("tree already added")

	// ErrNilTree indicates a nil tree was passed.
	ErrNilTree = errors.New("nil edit tree")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)

// PerformError reports a failure while trees were executing.
// Partial reverts the changes written before the failure.
type PerformError struct {
	Err     error
	Partial *history.Batch
}

func (e *PerformError) Error() string {
	n := 0
	if e.Partial != nil {
		n = e.Partial.Len()
	}
	return fmt.Sprintf("perform failed after %d changes: %v", n, e.Err)
}

func (e *PerformError) Unwrap() error {
	return e.Err
}

package script

import (
	"errors"
	"fmt"
)

// Errors for script execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrTimeout is returned when a script runs longer than its timeout.
	ErrTimeout = errors.New("script execution timeout")

	// ErrEditLimit is returned when a script creates more edits than allowed.
	ErrEditLimit = errors.New("script edit limit exceeded")
)

// Error reports a failed script. Err is the edit or limit error raised by
// the rewrite module when there is one, otherwise the Lua error.
type Error struct {
	Script string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %v", e.Script, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

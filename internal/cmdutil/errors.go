package cmdutil

import (
	"errors"
	"fmt"
)

// FlagError indicates bad flags or arguments. Main() prints the error
// message followed by the command's usage string.
type FlagError struct {
	err error
}

func (e *FlagError) Error() string { return e.err.Error() }
func (e *FlagError) Unwrap() error { return e.err }

// FlagErrorf creates a FlagError with a formatted message.
func FlagErrorf(format string, args ...any) error {
	return &FlagError{err: fmt.Errorf(format, args...)}
}

// SilentError signals that the error has already been displayed to the user.
// Main() will exit non-zero but not print anything additional.
var SilentError = errors.New("SilentError")

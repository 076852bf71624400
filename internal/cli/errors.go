// Package cli holds the plumbing shared by the bsonwalk commands: flag
// sets, error kinds and the mapping from errors to exit codes.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/calumari/bsonwalk"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitArgument    = 2
	ExitMalformed   = 3
	ExitUnsupported = 4
	ExitIO          = 5
)

// StatusError reports an unsuccessful exit by a command.
type StatusError struct {
	Status     string
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("status: %s, code: %d", e.Status, e.StatusCode)
}

// ArgumentError reports a missing or invalid flag, argument or input path.
type ArgumentError struct {
	Err error
}

// ArgumentErrorf formats an ArgumentError.
func ArgumentErrorf(format string, args ...any) error {
	return &ArgumentError{Err: fmt.Errorf(format, args...)}
}

func (e *ArgumentError) Error() string { return e.Err.Error() }
func (e *ArgumentError) Unwrap() error { return e.Err }

// IOError reports a failed file operation with the underlying reason.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error names the operation and path once; an *fs.PathError underneath
// contributes only its reason.
func (e *IOError) Error() string {
	reason := e.Err
	var pathErr *fs.PathError
	if errors.As(reason, &pathErr) {
		reason = pathErr.Err
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, reason)
}
func (e *IOError) Unwrap() error { return e.Err }

// ExitCode maps err to the process exit status. A nil error is ExitOK and
// any other error is non-zero.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		status StatusError
		argErr *ArgumentError
		ioErr  *IOError
	)
	switch {
	case errors.As(err, &status):
		if status.StatusCode == 0 {
			return ExitFailure
		}
		return status.StatusCode
	case errors.As(err, &argErr):
		return ExitArgument
	case errors.Is(err, bsonwalk.ErrMalformedInput):
		return ExitMalformed
	case errors.Is(err, bsonwalk.ErrUnsupportedType):
		return ExitUnsupported
	case errors.As(err, &ioErr):
		return ExitIO
	default:
		return ExitFailure
	}
}

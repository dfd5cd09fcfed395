package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuery    = errors.New("invalid query")
	ErrInvalidDocument = errors.New("invalid document")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIndexNotFound   = errors.New("index not found")
	ErrIndexExists     = errors.New("index already exists")
	ErrIndexLocked     = errors.New("index is locked by another process")
	ErrIndexCorrupt    = errors.New("index is corrupt")
	ErrUnavailable     = errors.New("service unavailable")
	ErrInternal        = errors.New("internal error")
)

// Process exit codes returned by the CLI.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitIndex   = 3
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidDocument), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidArgument):
		return ExitUsage
	case errors.Is(err, ErrIndexNotFound), errors.Is(err, ErrIndexExists), errors.Is(err, ErrIndexLocked), errors.Is(err, ErrIndexCorrupt):
		return ExitIndex
	default:
		return ExitFailure
	}
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

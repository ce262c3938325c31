// Package errs defines jobman's error taxonomy. Every user-visible failure
// carries one of the sysexits-style codes below, which the CLI turns into the
// process exit status.
package errs

import (
	"errors"
	"fmt"
)

// Exit codes, following BSD sysexits conventions.
const (
	CodeOK          = 0
	CodeUsage       = 64 // malformed arguments, bad duration/time syntax
	CodeDataErr     = 65 // kill/purge matched some but not all requested jobs
	CodeUnavailable = 69 // unknown job id in status, unsupported shell
	CodeOSErr       = 71 // detach or signal delivery failure
	CodeNotFound    = 72 // parent shell cannot be inferred
	CodeConfig      = 78 // unreadable config, conflicting display flags
)

// Error is an error with an associated exit code.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given exit code and message.
func New(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an exit code and context to an underlying error.
func Wrap(code int, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Usage creates a usage error.
func Usage(format string, args ...any) *Error {
	return New(CodeUsage, format, args...)
}

// ExitCode extracts the exit code from an error chain.
// nil maps to CodeOK; errors without a code map to 1.
func ExitCode(err error) int {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 1
}

// Package exitcodes defines the exit codes of the coxswain CLI.
package exitcodes

import "errors"

const (
	// Success indicates the command completed as requested.
	Success = 0
	// Generic indicates an unclassified failure.
	Generic = 1
	// RenderFailure indicates a requested sync failed while rendering the
	// source.
	RenderFailure = 10
	// ApplyFailure indicates a requested sync failed while applying
	// resources to the cluster.
	ApplyFailure = 11
	// Timeout indicates a requested sync did not report a result in time.
	Timeout = 12
)

// Error carries the exit code a failure should terminate the process with.
type Error struct {
	Code int
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode wraps err so the process exits with code.
func WithCode(code int, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Of returns the exit code err asks for, or Generic.
func Of(err error) int {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return Generic
}

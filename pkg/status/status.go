package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
)

// registered is a map from each error code to the name of the file which
// registered it. Used to detect duplicate code registrations at startup.
var registered = make(map[string]bool)

// register marks the passed error code as used. Panics if the code has
// already been registered, as duplicate error codes make them useless as
// machine-readable identifiers.
func register(code string) {
	if registered[code] {
		panic(fmt.Sprintf("duplicate error code %s", code))
	}
	registered[code] = true
}

// CodeRegistry returns a sorted copy of the registered error codes. Exposed
// for documentation generators and tests.
func CodeRegistry() []string {
	codes := make([]string, 0, len(registered))
	for code := range registered {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Error defines a coxswain error. These are the only errors surfaced on an
// Application's status, and each carries a stable machine-readable code.
type Error interface {
	// error is the standard error interface.
	error
	// Is allows errors.Is comparisons against Errors.
	Is(target error) bool
	// Code is the unique identifier of the error to help users find documentation.
	Code() string
	// Body is the body of the error to be printed.
	Body() string
	// Errors implements MultiError so that a single Error can be treated as
	// a collection of exactly one.
	Errors() []Error
	// ToAppError converts the Error to an AppError for inclusion in an
	// Application's status.
	ToAppError() v1alpha1.AppError
	// Cause returns the underlying error, if one exists.
	Cause() error
}

// prefix precedes every error code in user-visible messages.
const prefix = "CSW"

// format formats a complete Error for display to the user.
func format(err Error) string {
	return fmt.Sprintf("%s%s: %s", prefix, err.Code(), err.Body())
}

// formatBody concatenates the message and the body of an underlying error,
// separated by sep. Empty parts are dropped.
func formatBody(message, sep, body string) string {
	parts := make([]string, 0, 2)
	if message != "" {
		parts = append(parts, message)
	}
	if body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, sep)
}

// fromError embeds the error message and code into an AppError.
func fromError(err Error) v1alpha1.AppError {
	return v1alpha1.AppError{
		Code:    err.Code(),
		Message: err.Error(),
	}
}

// baseErrorImpl is a trivial Error with a code and no message.
type baseErrorImpl struct {
	code string
}

var _ Error = baseErrorImpl{}

// Error implements error.
func (e baseErrorImpl) Error() string {
	return format(e)
}

// Is implements Error.
func (e baseErrorImpl) Is(target error) bool {
	if target == nil {
		return false
	}
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return e.code == other.Code() && other.Body() == ""
}

// Code implements Error.
func (e baseErrorImpl) Code() string {
	return e.code
}

// Body implements Error.
func (e baseErrorImpl) Body() string {
	return ""
}

// Errors implements MultiError.
func (e baseErrorImpl) Errors() []Error {
	return []Error{e}
}

// ToAppError implements Error.
func (e baseErrorImpl) ToAppError() v1alpha1.AppError {
	return fromError(e)
}

// Cause implements causer.
func (e baseErrorImpl) Cause() error {
	return nil
}

// wrappedErrorImpl is an Error wrapping an arbitrary underlying error.
type wrappedErrorImpl struct {
	underlying Error
	wrapped    error
}

var _ Error = wrappedErrorImpl{}

// Error implements error.
func (w wrappedErrorImpl) Error() string {
	return format(w)
}

// Is implements Error.
func (w wrappedErrorImpl) Is(target error) bool {
	if target == nil {
		return false
	}
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return w.Code() == other.Code() && w.Body() == other.Body()
}

// Code implements Error.
func (w wrappedErrorImpl) Code() string {
	return w.underlying.Code()
}

// Body implements Error.
func (w wrappedErrorImpl) Body() string {
	return formatBody(w.underlying.Body(), ": ", w.wrapped.Error())
}

// Errors implements MultiError.
func (w wrappedErrorImpl) Errors() []Error {
	return []Error{w}
}

// ToAppError implements Error.
func (w wrappedErrorImpl) ToAppError() v1alpha1.AppError {
	return fromError(w)
}

// Cause implements causer.
func (w wrappedErrorImpl) Cause() error {
	return w.wrapped
}

// Unwrap lets errors.As reach the wrapped error, so callers can still match
// API server errors wrapped in an Error.
func (w wrappedErrorImpl) Unwrap() error {
	return w.wrapped
}

// ToAppErrors converts a MultiError to AppErrors for an Application's status.
func ToAppErrors(m MultiError) []v1alpha1.AppError {
	var errs []v1alpha1.AppError
	if m != nil {
		for _, err := range m.Errors() {
			errs = append(errs, err.ToAppError())
		}
	}
	return errs
}

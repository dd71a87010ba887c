package status

import (
	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
)

type pathErrorImpl struct {
	underlying Error
	paths      []string
}

var _ PathError = pathErrorImpl{}

// Error implements error.
func (p pathErrorImpl) Error() string {
	return format(p)
}

// Is implements Error.
func (p pathErrorImpl) Is(target error) bool {
	if target == nil {
		return false
	}
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return p.Code() == other.Code() && p.Body() == other.Body()
}

// Code implements Error.
func (p pathErrorImpl) Code() string {
	return p.underlying.Code()
}

// Body implements Error.
func (p pathErrorImpl) Body() string {
	return formatBody(p.underlying.Body(), "\n\n", formatPaths(p.paths))
}

// Errors implements MultiError.
func (p pathErrorImpl) Errors() []Error {
	return []Error{p}
}

// RelativePaths implements PathError.
func (p pathErrorImpl) RelativePaths() []string {
	return p.paths
}

// ToAppError implements Error.
func (p pathErrorImpl) ToAppError() v1alpha1.AppError {
	return fromError(p)
}

// Cause implements causer.
func (p pathErrorImpl) Cause() error {
	return p.underlying.Cause()
}

// Unwrap lets errors.As reach the underlying error.
func (p pathErrorImpl) Unwrap() error {
	return p.underlying
}

package status

import (
	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
)

type messageErrorImpl struct {
	underlying Error
	message    string
}

var _ Error = messageErrorImpl{}

// Error implements error.
func (m messageErrorImpl) Error() string {
	return format(m)
}

// Is implements Error.
func (m messageErrorImpl) Is(target error) bool {
	if target == nil {
		return false
	}
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return m.Code() == other.Code() && m.Body() == other.Body()
}

// Code implements Error.
func (m messageErrorImpl) Code() string {
	return m.underlying.Code()
}

// Body implements Error.
func (m messageErrorImpl) Body() string {
	return formatBody(m.message, ": ", m.underlying.Body())
}

// Errors implements MultiError.
func (m messageErrorImpl) Errors() []Error {
	return []Error{m}
}

// ToAppError implements Error.
func (m messageErrorImpl) ToAppError() v1alpha1.AppError {
	return fromError(m)
}

// Cause implements causer.
func (m messageErrorImpl) Cause() error {
	return m.underlying.Cause()
}

package status

import (
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
)

type resourceErrorImpl struct {
	underlying Error
	resources  []client.Object
}

var _ ResourceError = resourceErrorImpl{}

// Error implements error.
func (r resourceErrorImpl) Error() string {
	return format(r)
}

// Is implements Error.
func (r resourceErrorImpl) Is(target error) bool {
	if target == nil {
		return false
	}
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return r.Code() == other.Code() && r.Body() == other.Body()
}

// Code implements Error.
func (r resourceErrorImpl) Code() string {
	return r.underlying.Code()
}

// Body implements Error.
func (r resourceErrorImpl) Body() string {
	return formatBody(r.underlying.Body(), "\n\n", formatResources(r.resources))
}

// Errors implements MultiError.
func (r resourceErrorImpl) Errors() []Error {
	return []Error{r}
}

// Resources implements ResourceError.
func (r resourceErrorImpl) Resources() []client.Object {
	return r.resources
}

// ToAppError implements Error.
func (r resourceErrorImpl) ToAppError() v1alpha1.AppError {
	return fromError(r)
}

// Cause implements causer.
func (r resourceErrorImpl) Cause() error {
	return r.underlying.Cause()
}

// Unwrap lets errors.As reach the underlying error.
func (r resourceErrorImpl) Unwrap() error {
	return r.underlying
}

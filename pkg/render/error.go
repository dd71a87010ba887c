package render

import (
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// RenderErrorCode is the error code for user-actionable rendering errors: a
// broken kustomization, a resource entry that does not exist, or a patch that
// cannot apply.
const RenderErrorCode = "1068"

var renderErrorBuilder = status.NewErrorBuilder(RenderErrorCode)

// RenderError returns a user-actionable rendering error with a formatted
// message.
func RenderError(format string, a ...interface{}) status.Error {
	return renderErrorBuilder.Sprintf(format, a...).Build()
}

package source

import (
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// SourceErrorCode is the error code for errors reading from the source of
// truth.
const SourceErrorCode = "2004"

var sourceErrorBuilder = status.NewErrorBuilder(SourceErrorCode)

// SourceError returns a source error with a formatted message.
func SourceError(format string, a ...interface{}) status.Error {
	return sourceErrorBuilder.Sprintf(format, a...).Build()
}

// SourceWrap wraps an error from the source of truth with a formatted message.
func SourceWrap(err error, format string, a ...interface{}) status.Error {
	if err == nil {
		return nil
	}
	return sourceErrorBuilder.Sprintf(format, a...).Wrap(err).Build()
}

package status

// InternalErrorCode is the error code for Internal.
const InternalErrorCode = "1000"

var internalErrorBuilder = NewErrorBuilder(InternalErrorCode).Sprint("internal error")

// Internal errors represent conditions that should never happen, but that we
// check for so that we can control how the program terminates when these
// unexpected situations occur.
//
// These errors specifically happen when the code has a bug - as long as
// objects are being used as their contracts require, it should not be
// possible to trigger these.

// InternalError returns an Internal with the string representation of the passed object.
func InternalError(message string) Error {
	return internalErrorBuilder.Sprint(message).Build()
}

// InternalErrorf returns an Internal with a formatted message.
func InternalErrorf(format string, a ...interface{}) Error {
	return internalErrorBuilder.Sprintf(format, a...).Build()
}

// InternalWrap returns an Internal wrapping an error.
func InternalWrap(err error) Error {
	if err == nil {
		return nil
	}
	return internalErrorBuilder.Wrap(err).Build()
}

// InternalWrapf returns an Internal wrapping an error with a formatted message.
func InternalWrapf(err error, format string, a ...interface{}) Error {
	if err == nil {
		return nil
	}
	return internalErrorBuilder.Sprintf(format, a...).Wrap(err).Build()
}

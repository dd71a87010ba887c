package status

// OSErrorCode is the error code for a status Error originating from an OS-level
// function call.
const OSErrorCode = "2003"

var osErrorBuilder = NewErrorBuilder(OSErrorCode).Sprint("Operating System error")

// OSWrap returns an Error wrapping an OS-level error.
func OSWrap(err error) Error {
	if err == nil {
		return nil
	}
	return osErrorBuilder.Wrap(err).Build()
}

// OSWrapf returns an Error wrapping an OS-level error with a formatted message.
func OSWrapf(err error, format string, a ...interface{}) Error {
	if err == nil {
		return nil
	}
	return osErrorBuilder.Sprintf(format, a...).Wrap(err).Build()
}

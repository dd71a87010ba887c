package cluster

// noUpdateNeededError is returned if no update is needed for the given resource.
type noUpdateNeededError struct {
}

// Error implements error.
func (e *noUpdateNeededError) Error() string {
	return "noUpdateNeededError"
}

// NoUpdateNeeded returns the error an update function uses to signal that the
// stored object already matches the desired state.
func NoUpdateNeeded() error {
	return &noUpdateNeededError{}
}

// IsNoUpdateNeeded checks for whether the returned error is noUpdateNeededError.
func IsNoUpdateNeeded(err error) bool {
	_, ok := err.(*noUpdateNeededError)
	return ok
}

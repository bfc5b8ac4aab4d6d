package embedbuilder

import "fmt"

// ValidationError reports a message configuration that violates platform
// limits. It is always returned before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "embedbuilder: invalid message: " + e.Reason
}

// ResolutionError reports an origin from which no writable destination could
// be derived.
type ResolutionError struct {
	Reason string
}

func (e *ResolutionError) Error() string {
	return "embedbuilder: resolve target: " + e.Reason
}

func validationErrf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

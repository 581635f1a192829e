package aiconfig

import "fmt"

// ValidationKind classifies why a candidate configuration was rejected
type ValidationKind string

const (
	// Structural checks, evaluated before semantic rules
	ValidationUnknownOperation ValidationKind = "UnknownOperation"
	ValidationUnknownProvider  ValidationKind = "UnknownProvider"
	ValidationInvalidTimeout   ValidationKind = "InvalidTimeout"

	// Semantic invariants
	ValidationEmptyProviderSet  ValidationKind = "EmptyProviderSet"
	ValidationPrimaryNotEnabled ValidationKind = "PrimaryNotEnabled"
	ValidationCircularFallback  ValidationKind = "CircularFallback"
	ValidationTimeoutIncoherent ValidationKind = "TimeoutIncoherent"
)

// ValidationError is returned when a candidate configuration violates an
// invariant. It always prevents the write; nothing is mutated.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration [%s]: %s", e.Kind, e.Message)
}

func newValidationError(kind ValidationKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	ve, ok := err.(*ValidationError)
	return ve, ok
}

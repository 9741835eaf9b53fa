package cost

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidDescriptor = errors.New("invalid layer descriptor")
	ErrUnsupportedKind   = errors.New("unsupported layer kind")
	ErrCostOverflow      = errors.New("operation count overflows int64")
	ErrInvalidPolicy     = errors.New("invalid cost policy")
)

// DescriptorError reports a descriptor rejected before any arithmetic.
type DescriptorError struct {
	Index  int       // Position in the input sequence (-1 if not yet known)
	Kind   LayerKind // Kind of the rejected layer
	Reason string    // Human-readable cause
	Err    error     // Underlying cause, if any
}

// Error implements the error interface.
func (e *DescriptorError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("layer %d (%s): %s", e.Index, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s layer: %s", e.Kind, e.Reason)
}

// Unwrap allows errors.Is to match ErrInvalidDescriptor and the underlying cause.
func (e *DescriptorError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidDescriptor, e.Err}
	}
	return []error{ErrInvalidDescriptor}
}

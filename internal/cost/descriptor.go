package cost

import "fmt"

// LayerDescriptor describes one network layer for cost estimation.
//
// InputSize and OutputSize are the incoming feature count and the number of
// output units. Zero means absent; shape-only layers such as Flatten may leave
// them unset. Dense layers require both to be strictly positive.
type LayerDescriptor struct {
	Name       string // Optional label, e.g. the source framework's op or layer name
	Kind       LayerKind
	InputSize  int
	OutputSize int
	Activation Activation
}

// Dense returns a Dense layer descriptor.
func Dense(in, out int, act Activation) LayerDescriptor {
	return LayerDescriptor{Kind: KindDense, InputSize: in, OutputSize: out, Activation: act}
}

// Flatten returns a Flatten layer descriptor.
func Flatten() LayerDescriptor {
	return LayerDescriptor{Kind: KindFlatten}
}

// Validate checks the shape invariants of the descriptor.
//
// Sizes, when present, must be positive. Dense layers must carry both sizes.
// The returned error wraps ErrInvalidDescriptor.
func (d LayerDescriptor) Validate() error {
	if d.InputSize < 0 || d.OutputSize < 0 {
		return &DescriptorError{
			Index:  -1,
			Kind:   d.Kind,
			Reason: fmt.Sprintf("negative size (in=%d, out=%d)", d.InputSize, d.OutputSize),
		}
	}
	if d.Kind == KindDense && (d.InputSize == 0 || d.OutputSize == 0) {
		return &DescriptorError{
			Index:  -1,
			Kind:   d.Kind,
			Reason: fmt.Sprintf("dense layer requires positive input and output sizes (in=%d, out=%d)", d.InputSize, d.OutputSize),
		}
	}
	return nil
}

// label returns Name if set, otherwise the kind name.
func (d LayerDescriptor) label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Kind.String()
}

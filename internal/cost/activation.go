package cost

import "strings"

// ActivationKind tags the variant held by an Activation.
type ActivationKind int

// Activation variants.
const (
	ActivationNone ActivationKind = iota
	ActivationReLU
	ActivationSoftmax
	ActivationOther
)

// Activation is the activation applied to a layer's outputs.
//
// It is a tagged variant: None, ReLU, Softmax, or Other carrying the
// activation's name. The zero value is None.
type Activation struct {
	kind ActivationKind
	name string
}

// NoActivation returns the None activation.
func NoActivation() Activation { return Activation{} }

// ReLU returns the ReLU activation.
func ReLU() Activation { return Activation{kind: ActivationReLU} }

// Softmax returns the Softmax activation.
func Softmax() Activation { return Activation{kind: ActivationSoftmax} }

// Other returns an activation without a built-in cost, identified by name.
// An empty name yields None.
func Other(name string) Activation {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Activation{}
	}
	return Activation{kind: ActivationOther, name: name}
}

// ParseActivation maps an activation name to an Activation.
// "", "none", "linear" and "identity" map to None.
func ParseActivation(name string) Activation {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "none", "linear", "identity":
		return Activation{}
	case "relu":
		return ReLU()
	case "softmax":
		return Softmax()
	default:
		return Other(n)
	}
}

// Kind returns the variant tag.
func (a Activation) Kind() ActivationKind { return a.kind }

// Name returns the activation name ("none", "relu", "softmax", or the Other name).
func (a Activation) Name() string {
	switch a.kind {
	case ActivationReLU:
		return "relu"
	case ActivationSoftmax:
		return "softmax"
	case ActivationOther:
		return a.name
	default:
		return "none"
	}
}

// String implements fmt.Stringer.
func (a Activation) String() string { return a.Name() }

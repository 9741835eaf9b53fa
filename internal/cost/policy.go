package cost

import (
	"fmt"
	"maps"
	"slices"
)

// Policy holds the per-unit constants used by the cost rules.
//
// The defaults are heuristics, not cycle-accurate figures. Callers may override
// any of them; Activations assigns per-unit costs to named Other activations.
type Policy struct {
	MACOps         int64            // Operations per weight (multiply + accumulate)
	ReLUPerUnit    int64            // Operations per output unit for ReLU
	SoftmaxPerUnit int64            // Operations per output unit for Softmax
	Activations    map[string]int64 // Per-unit costs for Other activations, keyed by name
}

// Default policy constants.
const (
	DefaultMACOps         = 2
	DefaultReLUPerUnit    = 1
	DefaultSoftmaxPerUnit = 5
)

// DefaultPolicy returns the default cost policy.
//
// Default configuration:
//   - MACOps: 2 (one multiply, one accumulate per weight)
//   - ReLUPerUnit: 1 (one compare/select per output)
//   - SoftmaxPerUnit: 5 (exponent, sum and divide, coarse)
func DefaultPolicy() Policy {
	return Policy{
		MACOps:         DefaultMACOps,
		ReLUPerUnit:    DefaultReLUPerUnit,
		SoftmaxPerUnit: DefaultSoftmaxPerUnit,
	}
}

// Validate reports an error wrapping ErrInvalidPolicy if any constant is
// negative. Zero is allowed and means "not counted".
func (p Policy) Validate() error {
	fields := []struct {
		name string
		v    int64
	}{
		{"mac", p.MACOps},
		{"relu", p.ReLUPerUnit},
		{"softmax", p.SoftmaxPerUnit},
	}
	for _, f := range fields {
		if f.v < 0 {
			return fmt.Errorf("%w: %s cost %d is negative", ErrInvalidPolicy, f.name, f.v)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(p.Activations)) {
		if v := p.Activations[name]; v < 0 {
			return fmt.Errorf("%w: activation %q cost %d is negative", ErrInvalidPolicy, name, v)
		}
	}
	return nil
}

// activationCost returns the per-unit cost of act and whether it is known.
func (p Policy) activationCost(act Activation) (perUnit int64, known bool) {
	switch act.Kind() {
	case ActivationNone:
		return 0, true
	case ActivationReLU:
		return p.ReLUPerUnit, true
	case ActivationSoftmax:
		return p.SoftmaxPerUnit, true
	case ActivationOther:
		c, ok := p.Activations[act.Name()]
		return c, ok
	default:
		return 0, false
	}
}

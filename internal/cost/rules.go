package cost

import (
	"fmt"
	"math"
	"strings"
)

// LayerCost is the outcome of applying a Rule to one descriptor.
type LayerCost struct {
	Ops         int64  // Operations contributed to the total
	Params      int64  // Trainable parameters (weights + biases)
	Status      Status // How the layer was costed
	Approximate bool   // Part of the layer's cost is not accounted for
	Note        string // Human-readable remark for the trace
}

// Rule computes the cost of one layer kind.
//
// Rules are pure: they read only the descriptor and policy. A rule rejects a
// malformed descriptor by returning an error wrapping ErrInvalidDescriptor
// before doing any arithmetic.
type Rule interface {
	Cost(d LayerDescriptor, p Policy) (LayerCost, error)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(d LayerDescriptor, p Policy) (LayerCost, error)

// Cost calls f(d, p).
func (f RuleFunc) Cost(d LayerDescriptor, p Policy) (LayerCost, error) {
	return f(d, p)
}

// DenseRule costs a fully connected layer.
//
//	ops = MACOps*in*out + perUnit(activation)*out
//
// With the default policy: 2ab for no activation, 2ab+b for ReLU and 2ab+5b
// for Softmax. An Other activation missing from Policy.Activations adds
// nothing and marks the result approximate.
type DenseRule struct{}

// Cost implements Rule.
func (DenseRule) Cost(d LayerDescriptor, p Policy) (LayerCost, error) {
	if err := d.Validate(); err != nil {
		return LayerCost{}, err
	}

	in, out := int64(d.InputSize), int64(d.OutputSize)

	weights, ok := mulChecked(in, out)
	if !ok {
		return LayerCost{}, overflowError(d)
	}
	ops, ok := mulChecked(p.MACOps, weights)
	if !ok {
		return LayerCost{}, overflowError(d)
	}

	lc := LayerCost{Status: StatusCounted}

	perUnit, known := p.activationCost(d.Activation)
	actOps, ok := mulChecked(perUnit, out)
	if !ok {
		return LayerCost{}, overflowError(d)
	}
	if ops, ok = addChecked(ops, actOps); !ok {
		return LayerCost{}, overflowError(d)
	}
	lc.Ops = ops

	var notes []string
	if !known {
		notes = append(notes, fmt.Sprintf("activation %q cost not counted", d.Activation.Name()))
	}
	if params, ok := addChecked(weights, out); ok {
		lc.Params = params
	} else {
		notes = append(notes, "parameter count overflows int64, params not counted")
	}

	if len(notes) > 0 {
		lc.Approximate = true
		lc.Note = strings.Join(notes, "; ")
	}
	return lc, nil
}

// FlattenRule costs a shape-only reshape: always zero, whatever the sizes.
type FlattenRule struct{}

// Cost implements Rule.
func (FlattenRule) Cost(_ LayerDescriptor, _ Policy) (LayerCost, error) {
	return LayerCost{
		Status: StatusZeroCost,
		Note:   "no operations counted (shape-only)",
	}, nil
}

// unsupportedRule is the fallback for kinds without a rule.
type unsupportedRule struct{}

func (unsupportedRule) Cost(d LayerDescriptor, _ Policy) (LayerCost, error) {
	if err := d.Validate(); err != nil {
		return LayerCost{}, err
	}
	return LayerCost{
		Status: StatusUnsupported,
		Note:   fmt.Sprintf("unsupported layer kind %q: no operations counted", d.label()),
	}, nil
}

func overflowError(d LayerDescriptor) error {
	return &DescriptorError{
		Index:  -1,
		Kind:   d.Kind,
		Reason: fmt.Sprintf("cost of %dx%d layer overflows int64", d.InputSize, d.OutputSize),
		Err:    ErrCostOverflow,
	}
}

// mulChecked multiplies two non-negative values, reporting overflow.
func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a < 0 || b < 0 || a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// addSaturating adds two non-negative values, clamping at math.MaxInt64.
func addSaturating(a, b int64) int64 {
	if sum, ok := addChecked(a, b); ok {
		return sum
	}
	return math.MaxInt64
}

// addChecked adds two non-negative values, reporting overflow.
func addChecked(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

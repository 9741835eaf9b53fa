package cost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/flops/internal/parallel"
)

// Estimator folds per-kind cost rules over an ordered list of layers.
//
// An Estimator is immutable after construction and safe for concurrent use.
// Each Estimate call allocates its own result.
type Estimator struct {
	policy    Policy
	rules     map[LayerKind]Rule
	onInvalid InvalidPolicy
	parallel  parallel.Config
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithPolicy sets the per-unit cost constants.
func WithPolicy(p Policy) Option {
	return func(e *Estimator) {
		p.Activations = cloneActivations(p.Activations)
		e.policy = p
	}
}

// WithRule registers a rule for kind, replacing the built-in one if any.
// This is how Conv2D, LSTM and BatchNorm get costed.
func WithRule(kind LayerKind, r Rule) Option {
	return func(e *Estimator) {
		e.rules[kind] = r
	}
}

// WithInvalidPolicy selects how invalid descriptors are surfaced.
func WithInvalidPolicy(p InvalidPolicy) Option {
	return func(e *Estimator) {
		e.onInvalid = p
	}
}

// WithParallel enables per-layer costing on several goroutines.
// Report order and totals are identical to the sequential pass.
func WithParallel(cfg parallel.Config) Option {
	return func(e *Estimator) {
		e.parallel = cfg
	}
}

// NewEstimator creates an Estimator with the default policy, the built-in
// rules, SkipInvalid and sequential execution, then applies opts.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		policy:    DefaultPolicy(),
		rules:     make(map[LayerKind]Rule),
		onInvalid: SkipInvalid,
		parallel:  parallel.Sequential(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the estimator's cost policy.
func (e *Estimator) Policy() Policy {
	p := e.policy
	p.Activations = cloneActivations(p.Activations)
	return p
}

// Estimate computes the forward-pass cost of layers.
//
// The result always has one report per input descriptor, in input order,
// including unsupported and invalid ones. An empty input yields an empty
// report list and a zero total.
//
// Under RejectInvalid a non-nil error wrapping ErrInvalidDescriptor is
// returned together with the complete result when any descriptor was
// rejected. An error wrapping ErrCostOverflow is returned if the total does
// not fit in int64; Total then holds the sum up to the offending layer.
//
// A policy with negative constants is refused up front with an error
// wrapping ErrInvalidPolicy and no layer is costed.
func (e *Estimator) Estimate(layers []LayerDescriptor) (EstimationResult, error) {
	if err := e.policy.Validate(); err != nil {
		return EstimationResult{InvalidPolicy: e.onInvalid}, fmt.Errorf("estimate: %w", err)
	}

	result := EstimationResult{
		Layers:        make([]LayerReport, len(layers)),
		InvalidPolicy: e.onInvalid,
	}

	parallel.For(len(layers), func(i int) {
		result.Layers[i] = e.estimateLayer(i, layers[i])
	}, e.parallel)

	for i := range result.Layers {
		total, ok := addChecked(result.Total, result.Layers[i].Ops)
		if !ok {
			return result, fmt.Errorf("total at layer %d: %w", i, ErrCostOverflow)
		}
		result.Total = total
		result.Params = addSaturating(result.Params, result.Layers[i].Params)
	}

	if e.onInvalid == RejectInvalid {
		if err := result.Err(); err != nil {
			return result, fmt.Errorf("estimate: %d invalid layer(s): %w", result.Counts().Invalid, err)
		}
	}
	return result, nil
}

// estimateLayer applies the matching rule to one descriptor.
func (e *Estimator) estimateLayer(i int, d LayerDescriptor) LayerReport {
	report := LayerReport{
		Index:      i,
		Name:       d.label(),
		Kind:       d.Kind,
		InputSize:  d.InputSize,
		OutputSize: d.OutputSize,
		Activation: d.Activation,
	}

	lc, err := e.ruleFor(d.Kind).Cost(d, e.policy)
	if err != nil {
		report.Status = StatusInvalid
		report.Err = indexed(i, d, err)
		report.Note = "rejected: " + report.Err.Error()
		return report
	}

	if lc.Ops < 0 || lc.Params < 0 {
		report.Status = StatusInvalid
		report.Err = &DescriptorError{
			Index:  i,
			Kind:   d.Kind,
			Reason: fmt.Sprintf("rule returned negative cost (ops=%d, params=%d)", lc.Ops, lc.Params),
		}
		report.Note = "rejected: " + report.Err.Error()
		return report
	}

	report.Ops = lc.Ops
	report.Params = lc.Params
	report.Status = lc.Status
	report.Approximate = lc.Approximate
	report.Note = lc.Note
	return report
}

// ruleFor returns the rule for kind. Registered rules win over built-ins.
func (e *Estimator) ruleFor(kind LayerKind) Rule {
	if r, ok := e.rules[kind]; ok {
		return r
	}
	switch kind {
	case KindDense:
		return DenseRule{}
	case KindFlatten:
		return FlattenRule{}
	case KindConv2D, KindLSTM, KindBatchNorm, KindUnknown:
		return unsupportedRule{}
	default:
		return unsupportedRule{}
	}
}

// indexed attaches the layer position to a rule error.
func indexed(i int, d LayerDescriptor, err error) error {
	var de *DescriptorError
	if errors.As(err, &de) {
		cp := *de
		cp.Index = i
		return &cp
	}
	return &DescriptorError{Index: i, Kind: d.Kind, Reason: err.Error(), Err: err}
}

// cloneActivations copies m with keys normalized the way Other normalizes names.
func cloneActivations(m map[string]int64) map[string]int64 {
	if m == nil {
		return nil
	}
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// Estimate computes the cost of layers with a default Estimator.
func Estimate(layers []LayerDescriptor) (EstimationResult, error) {
	return NewEstimator().Estimate(layers)
}

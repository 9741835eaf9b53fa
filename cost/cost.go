// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cost

import (
	"github.com/born-ml/flops/internal/cost"
	"github.com/born-ml/flops/internal/parallel"
)

// Descriptors

// LayerKind identifies the category of a layer.
type LayerKind = cost.LayerKind

// Layer kinds.
const (
	KindUnknown   = cost.KindUnknown
	KindDense     = cost.KindDense
	KindFlatten   = cost.KindFlatten
	KindConv2D    = cost.KindConv2D
	KindLSTM      = cost.KindLSTM
	KindBatchNorm = cost.KindBatchNorm
)

// ParseKind maps a layer tag such as "dense" or "Conv2D" to a LayerKind.
func ParseKind(tag string) LayerKind { return cost.ParseKind(tag) }

// Activation is the activation applied to a layer's outputs.
type Activation = cost.Activation

// NoActivation returns the None activation.
func NoActivation() Activation { return cost.NoActivation() }

// ReLU returns the ReLU activation.
func ReLU() Activation { return cost.ReLU() }

// Softmax returns the Softmax activation.
func Softmax() Activation { return cost.Softmax() }

// Other returns a named activation without a built-in cost.
func Other(name string) Activation { return cost.Other(name) }

// ParseActivation maps an activation name to an Activation.
func ParseActivation(name string) Activation { return cost.ParseActivation(name) }

// LayerDescriptor describes one network layer.
type LayerDescriptor = cost.LayerDescriptor

// Dense returns a Dense layer descriptor.
func Dense(in, out int, act Activation) LayerDescriptor { return cost.Dense(in, out, act) }

// Flatten returns a Flatten layer descriptor.
func Flatten() LayerDescriptor { return cost.Flatten() }

// Rules and policy

// Policy holds the per-unit cost constants.
type Policy = cost.Policy

// DefaultPolicy returns MACOps=2, ReLUPerUnit=1, SoftmaxPerUnit=5.
func DefaultPolicy() Policy { return cost.DefaultPolicy() }

// Rule computes the cost of one layer kind.
type Rule = cost.Rule

// RuleFunc adapts a function to the Rule interface.
type RuleFunc = cost.RuleFunc

// LayerCost is the outcome of applying a Rule.
type LayerCost = cost.LayerCost

// Results

// Status describes how a layer was treated.
type Status = cost.Status

// Layer statuses.
const (
	StatusCounted     = cost.StatusCounted
	StatusZeroCost    = cost.StatusZeroCost
	StatusUnsupported = cost.StatusUnsupported
	StatusInvalid     = cost.StatusInvalid
)

// LayerReport is the trace entry for one layer.
type LayerReport = cost.LayerReport

// EstimationResult is the outcome of one estimation.
type EstimationResult = cost.EstimationResult

// InvalidPolicy selects how invalid descriptors affect an estimation.
type InvalidPolicy = cost.InvalidPolicy

// Invalid descriptor policies.
const (
	SkipInvalid   = cost.SkipInvalid
	RejectInvalid = cost.RejectInvalid
)

// Errors

// DescriptorError reports a rejected descriptor.
type DescriptorError = cost.DescriptorError

// Sentinel errors.
var (
	ErrInvalidDescriptor = cost.ErrInvalidDescriptor
	ErrCostOverflow      = cost.ErrCostOverflow
	ErrInvalidPolicy     = cost.ErrInvalidPolicy
)

// Estimator

// Estimator folds cost rules over a layer list. Safe for concurrent use.
type Estimator = cost.Estimator

// Option configures an Estimator.
type Option = cost.Option

// NewEstimator creates an Estimator.
func NewEstimator(opts ...Option) *Estimator { return cost.NewEstimator(opts...) }

// WithPolicy sets the per-unit cost constants.
func WithPolicy(p Policy) Option { return cost.WithPolicy(p) }

// WithRule registers a rule for a layer kind.
func WithRule(kind LayerKind, r Rule) Option { return cost.WithRule(kind, r) }

// WithInvalidPolicy selects how invalid descriptors are surfaced.
func WithInvalidPolicy(p InvalidPolicy) Option { return cost.WithInvalidPolicy(p) }

// WithParallel costs layers on up to workers goroutines.
// Results are identical to the sequential pass.
func WithParallel(workers int) Option {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = workers > 1
	cfg.NumWorkers = workers
	return cost.WithParallel(cfg)
}

// Estimate computes the cost of layers with the default Estimator.
func Estimate(layers []LayerDescriptor) (EstimationResult, error) {
	return cost.Estimate(layers)
}

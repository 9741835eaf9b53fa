// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cost estimates the arithmetic cost of a network's forward pass.
//
// # Overview
//
// Given an ordered list of layer descriptors, the estimator returns the number
// of arithmetic operations one forward pass needs, without running the
// network. Each layer contributes according to a closed-form rule:
//
//   - Dense: 2·in·out, plus out for ReLU or 5·out for Softmax
//   - Flatten: 0 (shape-only, still listed in the trace)
//   - Conv2D, LSTM, BatchNorm and unknown kinds: 0, flagged as unsupported
//
// # Basic Usage
//
//	import "github.com/born-ml/flops/cost"
//
//	func main() {
//	    layers := []cost.LayerDescriptor{
//	        cost.Flatten(),
//	        cost.Dense(784, 100, cost.ReLU()),
//	        cost.Dense(100, 100, cost.ReLU()),
//	        cost.Dense(100, 10, cost.Softmax()),
//	    }
//
//	    result, err := cost.Estimate(layers)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Total) // 179050
//	}
//
// # Policy
//
// The per-unit constants are heuristics and can be overridden:
//
//	p := cost.DefaultPolicy()
//	p.SoftmaxPerUnit = 3
//	p.Activations = map[string]int64{"tanh": 4}
//	est := cost.NewEstimator(cost.WithPolicy(p))
//
// # Invalid Layers
//
// A Dense layer without positive sizes is rejected but still reported, with
// zero operations and StatusInvalid. With WithInvalidPolicy(RejectInvalid),
// Estimate additionally returns an error wrapping ErrInvalidDescriptor.
package cost

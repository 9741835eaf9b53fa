// Package cost implements static forward-pass cost estimation for feed-forward networks.
//
// The estimator never executes a network. It walks an ordered list of layer
// descriptors (kind, input size, output size, activation) and applies a closed-form
// rule per layer kind, producing a per-layer trace and a grand total of arithmetic
// operations for a single forward pass.
//
// Key components:
//   - LayerDescriptor: one entry per layer, in forward-pass order
//   - Rule: per-kind cost formula (Dense, Flatten, unsupported fallback)
//   - Policy: tunable per-unit constants (ReLU, Softmax, multiply-accumulate)
//   - Estimator: folds rules over descriptors into an EstimationResult
//
// Example usage:
//
//	layers := []cost.LayerDescriptor{
//	    cost.Flatten(),
//	    cost.Dense(784, 100, cost.ReLU()),
//	    cost.Dense(100, 10, cost.Softmax()),
//	}
//	result, err := cost.NewEstimator().Estimate(layers)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Total) // 158950
//
// Estimation is pure: an Estimator holds no mutable state and may be shared
// across goroutines.
package cost

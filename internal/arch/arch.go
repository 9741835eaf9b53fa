// Package arch builds layer descriptors for multilayer perceptrons described
// by layer sizes or by their weight matrices.
package arch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/flops/internal/cost"
)

// ErrTooFewLayers is returned when fewer than two layer sizes are given.
var ErrTooFewLayers = errors.New("need at least an input and an output layer size")

// Architecture is a fully connected network given as a sequence of layer sizes.
//
// Layers[0] is the input width and Layers[len-1] the output width; every
// adjacent pair is joined by one Dense layer.
type Architecture struct {
	Layers  []int           // Full sequence of layer sizes
	Hidden  cost.Activation // Activation of every Dense layer but the last
	Output  cost.Activation // Activation of the last Dense layer
	Flatten bool            // Prepend a Flatten layer (image input)
}

// Descriptors returns the layer descriptors in forward-pass order.
//
// Sizes are passed through unchecked; non-positive sizes surface as invalid
// layers in the estimation report.
func (a Architecture) Descriptors() ([]cost.LayerDescriptor, error) {
	if len(a.Layers) < 2 {
		return nil, ErrTooFewLayers
	}

	layers := make([]cost.LayerDescriptor, 0, len(a.Layers))
	if a.Flatten {
		layers = append(layers, cost.LayerDescriptor{Name: "flatten", Kind: cost.KindFlatten, OutputSize: a.Layers[0]})
	}
	last := len(a.Layers) - 2
	for i := 0; i <= last; i++ {
		act := a.Hidden
		if i == last {
			act = a.Output
		}
		d := cost.Dense(a.Layers[i], a.Layers[i+1], act)
		d.Name = fmt.Sprintf("dense_%d", i+1)
		layers = append(layers, d)
	}
	return layers, nil
}

// FromWeights builds descriptors from a network's weight matrices.
//
// Each matrix is laid out rows=outputs, cols=inputs, so that the layer
// computes W·x. Only the dimensions are read; the values may be untrained.
func FromWeights(weights []mat.Matrix, hidden, output cost.Activation) ([]cost.LayerDescriptor, error) {
	if len(weights) == 0 {
		return nil, ErrTooFewLayers
	}

	layers := make([]cost.LayerDescriptor, len(weights))
	for i, w := range weights {
		if w == nil {
			return nil, fmt.Errorf("weight %d is nil", i)
		}
		rows, cols := w.Dims()
		if i > 0 && cols != layers[i-1].OutputSize {
			return nil, fmt.Errorf("weight %d has %d inputs, previous layer has %d outputs", i, cols, layers[i-1].OutputSize)
		}
		act := hidden
		if i == len(weights)-1 {
			act = output
		}
		layers[i] = cost.Dense(cols, rows, act)
		layers[i].Name = fmt.Sprintf("dense_%d", i+1)
	}
	return layers, nil
}

// MNIST returns the MNIST classifier used throughout the examples:
// Flatten, two ReLU hidden layers of the given width, and a Softmax output.
func MNIST(hidden int) Architecture {
	return Architecture{
		Layers:  []int{784, hidden, hidden, 10},
		Hidden:  cost.ReLU(),
		Output:  cost.Softmax(),
		Flatten: true,
	}
}

// Presets are named architectures available to the CLI.
var Presets = map[string]Architecture{
	"mnist-100": MNIST(100),
	"mnist-50":  MNIST(50),
}

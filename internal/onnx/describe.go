package onnx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/flops/internal/cost"
)

// Common errors.
var (
	ErrEmptyModel    = errors.New("empty model data")
	ErrNoGraph       = errors.New("model has no graph")
	ErrUnsupportedOp = errors.New("unsupported operator")
)

// DescribeOptions configures graph-to-descriptor conversion.
type DescribeOptions struct {
	// StrictMode fails on operators that map to no layer kind
	// (default: false = emit a KindUnknown descriptor named after the op).
	StrictMode bool
}

// DefaultDescribeOptions returns default conversion options.
func DefaultDescribeOptions() DescribeOptions {
	return DescribeOptions{StrictMode: false}
}

// DescribeFile parses an ONNX file and converts its graph to layer descriptors.
func DescribeFile(path string, opts DescribeOptions) ([]cost.LayerDescriptor, error) {
	model, err := ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ONNX file: %w", err)
	}
	return Describe(model, opts)
}

// activationOps maps single-input activation operators to activations.
var activationOps = map[string]cost.Activation{
	"Relu":        cost.ReLU(),
	"Softmax":     cost.Softmax(),
	"Sigmoid":     cost.Other("sigmoid"),
	"Tanh":        cost.Other("tanh"),
	"LeakyRelu":   cost.Other("leakyrelu"),
	"Elu":         cost.Other("elu"),
	"Selu":        cost.Other("selu"),
	"Gelu":        cost.Other("gelu"),
	"HardSigmoid": cost.Other("hardsigmoid"),
	"Softplus":    cost.Other("softplus"),
}

// layerOps maps operators to layer kinds without a fusion step.
var layerOps = map[string]cost.LayerKind{
	"Flatten":            cost.KindFlatten,
	"Reshape":            cost.KindFlatten,
	"Conv":               cost.KindConv2D,
	"LSTM":               cost.KindLSTM,
	"BatchNormalization": cost.KindBatchNorm,
}

// Describe converts the model graph into layer descriptors in execution order.
//
// Conversion rules:
//   - Gemm and MatMul with an initializer weight become Dense layers sized from
//     the weight shape (Gemm honours transB)
//   - An Add of an initializer onto a Dense output is folded in as the bias
//   - An activation applied to a Dense output becomes that layer's activation
//   - Flatten/Reshape, Conv, LSTM and BatchNormalization map to their kinds
//   - Anything else becomes a KindUnknown descriptor named after the op type
//
// A Dense whose weight is not a 2-D initializer is emitted with zero sizes,
// so the estimator reports it as invalid rather than guessing.
func Describe(model *ModelProto, opts DescribeOptions) ([]cost.LayerDescriptor, error) {
	if model == nil || model.Graph == nil {
		return nil, ErrNoGraph
	}
	g := model.Graph

	weights := make(map[string][]int64, len(g.Initializers))
	for i := range g.Initializers {
		weights[g.Initializers[i].Name] = g.Initializers[i].Dims
	}

	var (
		layers []cost.LayerDescriptor
		// open maps a tensor name to the Dense layer that produced it and
		// can still absorb a bias or activation.
		open = make(map[string]int)
	)

	for _, node := range topologicalSort(g.Nodes) {
		switch op := node.OpType; {
		case op == "Gemm" || op == "MatMul":
			layers = append(layers, denseFromNode(&node, weights))
			markOpen(open, &node, len(layers)-1)

		case op == "Add":
			if idx, ok := biasTarget(&node, open, weights); ok {
				markOpen(open, &node, idx)
				continue
			}
			layers = append(layers, unknown(&node))

		case isActivation(op):
			if idx, ok := openInput(&node, open); ok && layers[idx].Activation == cost.NoActivation() {
				layers[idx].Activation = activationOps[op]
				delete(open, node.Inputs[0])
				continue
			}
			layers = append(layers, unknown(&node))

		default:
			kind, ok := layerOps[op]
			if !ok {
				if opts.StrictMode {
					return nil, fmt.Errorf("node %q: %w: %s", node.Name, ErrUnsupportedOp, op)
				}
				layers = append(layers, unknown(&node))
				continue
			}
			layers = append(layers, cost.LayerDescriptor{Name: nodeLabel(&node), Kind: kind})
		}
	}

	return layers, nil
}

// denseFromNode sizes a Gemm/MatMul node from its weight initializer.
func denseFromNode(node *NodeProto, weights map[string][]int64) cost.LayerDescriptor {
	d := cost.LayerDescriptor{Name: nodeLabel(node), Kind: cost.KindDense}
	if len(node.Inputs) < 2 {
		return d
	}
	dims, ok := weights[node.Inputs[1]]
	if !ok || len(dims) != 2 {
		return d
	}
	in, out := dims[0], dims[1]
	if node.OpType == "Gemm" && node.AttrInt("transB", 0) != 0 {
		in, out = out, in
	}
	d.InputSize, d.OutputSize = int(in), int(out)
	return d
}

// biasTarget reports the Dense layer an Add node adds a constant bias to.
func biasTarget(node *NodeProto, open map[string]int, weights map[string][]int64) (int, bool) {
	if len(node.Inputs) != 2 {
		return 0, false
	}
	for i, in := range node.Inputs {
		idx, isOpen := open[in]
		if _, isConst := weights[node.Inputs[1-i]]; isOpen && isConst {
			return idx, true
		}
	}
	return 0, false
}

func isActivation(op string) bool {
	_, ok := activationOps[op]
	return ok
}

func openInput(node *NodeProto, open map[string]int) (int, bool) {
	if len(node.Inputs) == 0 {
		return 0, false
	}
	idx, ok := open[node.Inputs[0]]
	return idx, ok
}

func markOpen(open map[string]int, node *NodeProto, idx int) {
	for _, out := range node.Outputs {
		open[out] = idx
	}
}

func unknown(node *NodeProto) cost.LayerDescriptor {
	return cost.LayerDescriptor{Name: nodeLabel(node), Kind: cost.KindUnknown}
}

// nodeLabel returns "name (OpType)" or just the op type for unnamed nodes.
func nodeLabel(node *NodeProto) string {
	name := strings.TrimSpace(node.Name)
	if name == "" || name == node.OpType {
		return node.OpType
	}
	return fmt.Sprintf("%s (%s)", name, node.OpType)
}

// topologicalSort sorts nodes in execution order.
// Ensures producers come before consumers; ties keep file order.
func topologicalSort(nodes []NodeProto) []NodeProto {
	outputToNode := make(map[string]int)
	for i := range nodes {
		for _, output := range nodes[i].Outputs {
			outputToNode[output] = i
		}
	}

	visited := make([]bool, len(nodes))
	result := make([]NodeProto, 0, len(nodes))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, input := range nodes[i].Inputs {
			if depIdx, ok := outputToNode[input]; ok {
				visit(depIdx)
			}
		}
		result = append(result, nodes[i])
	}

	for i := range nodes {
		visit(i)
	}
	return result
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx turns ONNX models into layer descriptors for cost estimation.
//
// Only the graph structure is read: operator types, edges, attributes and
// initializer shapes. Weight values are skipped.
//
// # Supported Mappings
//
//   - Gemm, MatMul (with initializer weight) → Dense; a following Add with a
//     constant operand is treated as the bias
//   - Relu, Softmax, Sigmoid, Tanh, ... on a Dense output → that layer's activation
//   - Flatten, Reshape → Flatten
//   - Conv → Conv2D, LSTM → LSTM, BatchNormalization → BatchNorm
//   - Anything else → an unknown layer named after the operator
//
// # Example Usage
//
//	import (
//	    "github.com/born-ml/flops/cost"
//	    "github.com/born-ml/flops/onnx"
//	)
//
//	layers, err := onnx.DescribeFile("mlp.onnx", onnx.DefaultDescribeOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := cost.Estimate(layers)
package onnx

import (
	"github.com/born-ml/flops/cost"
	internalonnx "github.com/born-ml/flops/internal/onnx"
)

// DescribeOptions configures graph-to-descriptor conversion.
type DescribeOptions = internalonnx.DescribeOptions

// DefaultDescribeOptions returns the default options.
//
// Default configuration:
//   - Strict mode: disabled (unknown operators become unknown layers)
func DefaultDescribeOptions() DescribeOptions {
	return internalonnx.DefaultDescribeOptions()
}

// ModelProto is the parsed structure of an ONNX model.
type ModelProto = internalonnx.ModelProto

// Sentinel errors.
var (
	ErrEmptyModel    = internalonnx.ErrEmptyModel
	ErrNoGraph       = internalonnx.ErrNoGraph
	ErrUnsupportedOp = internalonnx.ErrUnsupportedOp
)

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	return internalonnx.Parse(data)
}

// ParseFile parses an ONNX model from a file.
func ParseFile(path string) (*ModelProto, error) {
	return internalonnx.ParseFile(path)
}

// Describe converts a parsed model into layer descriptors in execution order.
func Describe(model *ModelProto, opts DescribeOptions) ([]cost.LayerDescriptor, error) {
	return internalonnx.Describe(model, opts)
}

// DescribeFile parses an ONNX file and converts it into layer descriptors.
//
// Example:
//
//	layers, err := onnx.DescribeFile("resnet50.onnx", onnx.DefaultDescribeOptions())
func DescribeFile(path string, opts DescribeOptions) ([]cost.LayerDescriptor, error) {
	return internalonnx.DescribeFile(path, opts)
}

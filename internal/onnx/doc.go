// Package onnx reads the layer structure of ONNX models for cost estimation.
//
// ONNX (Open Neural Network Exchange) is an open format for representing deep learning models.
// This package implements a hand-written protobuf reader for .onnx files without external
// dependencies. Only the graph structure is decoded: node types, edges, attributes, and the
// shapes of initializers. Raw weight data is skipped, so describing a model does not
// require loading its weights into memory.
//
// Key components:
//   - ModelProto: Top-level ONNX model structure with metadata and graph
//   - GraphProto: Computation graph with nodes, inputs, outputs, and initializer shapes
//   - NodeProto: Single operation in the graph (e.g., Gemm, MatMul, Relu)
//   - Describe: Converts a graph into an ordered list of cost.LayerDescriptor
//
// Example usage:
//
//	layers, err := onnx.DescribeFile("mlp.onnx", onnx.DefaultDescribeOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := cost.Estimate(layers)
package onnx

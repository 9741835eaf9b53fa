package onnx

// ONNX protobuf data structures (hand-written, structure only).

// ModelProto represents an ONNX model.
type ModelProto struct {
	IRVersion       int64           // IR version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID // Opset version(s)
	ProducerName    string          // Framework name (e.g., "pytorch", "tf2onnx")
	ProducerVersion string          // Framework version
	ModelVersion    int64           // Model version number
	Graph           *GraphProto     // Computation graph
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string           // Graph name
	Nodes        []NodeProto      // Operation nodes
	Inputs       []ValueInfoProto // Graph inputs
	Outputs      []ValueInfoProto // Graph outputs
	Initializers []TensorProto    // Weight tensors (shape only)
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name       string           // Node name (optional)
	OpType     string           // Operation type (e.g., "Gemm", "Relu")
	Inputs     []string         // Input tensor names
	Outputs    []string         // Output tensor names
	Attributes []AttributeProto // Operation attributes
	Domain     string           // Custom domain (empty for default)
}

// Attr returns the attribute with the given name.
func (n *NodeProto) Attr(name string) (AttributeProto, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeProto{}, false
}

// AttrInt returns the INT attribute name, or def when absent.
func (n *NodeProto) AttrInt(name string, def int64) int64 {
	if a, ok := n.Attr(name); ok {
		return a.I
	}
	return def
}

// TensorProto is an initializer. Only its identity and shape are decoded.
type TensorProto struct {
	Name     string  // Tensor name
	DataType int32   // Element data type
	Dims     []int64 // Tensor shape
}

// ValueInfoProto describes an input/output tensor.
type ValueInfoProto struct {
	Name     string           // Tensor name
	ElemType int32            // Element data type
	Dims     []DimensionProto // Shape, nil if unknown
}

// DimensionProto describes a single dimension.
type DimensionProto struct {
	DimValue int64  // Static dimension value (e.g., 784)
	DimParam string // Dynamic dimension name (e.g., "batch_size")
}

// AttributeProto represents node attributes.
type AttributeProto struct {
	Name string  // Attribute name
	Type int32   // Attribute type
	F    float32 // FLOAT value
	I    int64   // INT value
	S    []byte  // STRING value
	Ints []int64 // INTS array
}

// OperatorSetID identifies opset version.
type OperatorSetID struct {
	Domain  string // Operator domain (empty for default)
	Version int64  // Opset version number
}

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1  // float32
	TensorProtoInt64     = 7  // int64
	TensorProtoDouble    = 11 // float64
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoFloat  = 1 // FLOAT
	AttributeProtoInt    = 2 // INT
	AttributeProtoString = 3 // STRING
	AttributeProtoInts   = 7 // INTS
)

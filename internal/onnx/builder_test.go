package onnx

// protoBuilder helps construct protobuf messages.
type protoBuilder struct {
	data []byte
}

func (b *protoBuilder) writeTag(fieldNum, wireType int) {
	tag := (fieldNum << 3) | wireType
	b.writeVarint(int64(tag))
}

func (b *protoBuilder) writeVarint(v int64) {
	u := uint64(v)
	for u >= 0x80 {
		b.data = append(b.data, byte(u)|0x80)
		u >>= 7
	}
	b.data = append(b.data, byte(u))
}

func (b *protoBuilder) writeBytes(data []byte) {
	b.writeVarint(int64(len(data)))
	b.data = append(b.data, data...)
}

func (b *protoBuilder) str(fieldNum int, s string) *protoBuilder {
	b.writeTag(fieldNum, wireBytes)
	b.writeBytes([]byte(s))
	return b
}

func (b *protoBuilder) msg(fieldNum int, data []byte) *protoBuilder {
	b.writeTag(fieldNum, wireBytes)
	b.writeBytes(data)
	return b
}

func (b *protoBuilder) varint(fieldNum int, v int64) *protoBuilder {
	b.writeTag(fieldNum, wireVarint)
	b.writeVarint(v)
	return b
}

// buildModel wraps a graph in a ModelProto with opset 13.
func buildModel(graph []byte) []byte {
	opset := (&protoBuilder{}).str(1, "").varint(2, 13)
	return (&protoBuilder{}).
		varint(1, 7).
		str(2, "pytorch").
		str(3, "2.1.0").
		msg(8, opset.data).
		msg(7, graph).
		data
}

// buildGraph assembles a GraphProto from pre-encoded parts.
func buildGraph(name string, nodes, initializers, inputs, outputs [][]byte) []byte {
	b := (&protoBuilder{}).str(2, name)
	for _, n := range nodes {
		b.msg(1, n)
	}
	for _, t := range initializers {
		b.msg(5, t)
	}
	for _, vi := range inputs {
		b.msg(11, vi)
	}
	for _, vi := range outputs {
		b.msg(12, vi)
	}
	return b.data
}

// buildNode creates a NodeProto.
func buildNode(op, name string, inputs, outputs []string, attrs ...[]byte) []byte {
	b := &protoBuilder{}
	for _, in := range inputs {
		b.str(1, in)
	}
	for _, out := range outputs {
		b.str(2, out)
	}
	if name != "" {
		b.str(3, name)
	}
	b.str(4, op)
	for _, a := range attrs {
		b.msg(5, a)
	}
	return b.data
}

// buildIntAttr creates an INT AttributeProto.
func buildIntAttr(name string, v int64) []byte {
	return (&protoBuilder{}).str(1, name).varint(3, v).varint(20, AttributeProtoInt).data
}

// buildIntsAttr creates a packed INTS AttributeProto.
func buildIntsAttr(name string, vs ...int64) []byte {
	packed := &protoBuilder{}
	for _, v := range vs {
		packed.writeVarint(v)
	}
	return (&protoBuilder{}).str(1, name).varint(20, AttributeProtoInts).msg(8, packed.data).data
}

// buildTensorProto creates a TensorProto with zeroed float32 raw data.
func buildTensorProto(name string, dims ...int64) []byte {
	b := &protoBuilder{}
	n := int64(1)
	for _, dim := range dims {
		b.varint(1, dim)
		n *= dim
	}
	b.varint(2, TensorProtoFloat)
	b.str(8, name)
	b.msg(9, make([]byte, 4*n))
	return b.data
}

// buildValueInfo creates a float ValueInfoProto; non-positive dims are dynamic.
func buildValueInfo(name string, shape ...int64) []byte {
	shapeData := &protoBuilder{}
	for _, dim := range shape {
		dimData := &protoBuilder{}
		if dim > 0 {
			dimData.varint(1, dim)
		} else {
			dimData.str(2, "batch")
		}
		shapeData.msg(1, dimData.data)
	}
	tensorType := (&protoBuilder{}).varint(1, TensorProtoFloat).msg(2, shapeData.data)
	typ := (&protoBuilder{}).msg(1, tensorType.data)
	return (&protoBuilder{}).str(1, name).msg(2, typ.data).data
}

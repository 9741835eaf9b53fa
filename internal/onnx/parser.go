package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: Path is provided by user, file inclusion is intentional for ONNX model loading
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	if len(data) == 0 {
		return nil, ErrEmptyModel
	}
	model := &ModelProto{}
	if err := newParser(data).readModelProto(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// parser implements a minimal protobuf wire format decoder.
type parser struct {
	data []byte
	pos  int
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	wire64Bit  = 1 // fixed64, sfixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, sfixed32, float
)

// fields calls fn for every field tag in the message. fn must consume the
// field's value; returning errSkip makes fields skip it instead.
func (p *parser) fields(fn func(fieldNum, wireType int) error) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			return err
		}
		err = fn(fieldNum, wireType)
		if errors.Is(err, errSkip) {
			err = p.skipField(wireType)
		}
		if err != nil {
			return fmt.Errorf("field %d: %w", fieldNum, err)
		}
	}
	return nil
}

var errSkip = errors.New("skip field")

// sub reads a length-delimited embedded message.
func (p *parser) sub() (*parser, error) {
	data, err := p.readBytes()
	if err != nil {
		return nil, err
	}
	return newParser(data), nil
}

func (p *parser) readString() (string, error) {
	data, err := p.readBytes()
	return string(data), err
}

// readModelProto reads ModelProto message.
func (p *parser) readModelProto(m *ModelProto) error {
	return p.fields(func(fieldNum, _ int) error {
		var err error
		switch fieldNum {
		case 1: // ir_version
			m.IRVersion, err = p.readVarint()
		case 2: // producer_name
			m.ProducerName, err = p.readString()
		case 3: // producer_version
			m.ProducerVersion, err = p.readString()
		case 5: // model_version
			m.ModelVersion, err = p.readVarint()
		case 7: // graph
			var sub *parser
			if sub, err = p.sub(); err == nil {
				m.Graph = &GraphProto{}
				err = sub.readGraphProto(m.Graph)
			}
		case 8: // opset_import
			var sub *parser
			if sub, err = p.sub(); err == nil {
				opset := OperatorSetID{}
				err = sub.readOperatorSetID(&opset)
				m.OpsetImport = append(m.OpsetImport, opset)
			}
		default:
			return errSkip
		}
		return err
	})
}

// readGraphProto reads GraphProto message.
func (p *parser) readGraphProto(m *GraphProto) error {
	return p.fields(func(fieldNum, _ int) error {
		switch fieldNum {
		case 1: // node
			sub, err := p.sub()
			if err != nil {
				return err
			}
			node := NodeProto{}
			if err := sub.readNodeProto(&node); err != nil {
				return err
			}
			m.Nodes = append(m.Nodes, node)
			return nil
		case 2: // name
			var err error
			m.Name, err = p.readString()
			return err
		case 5: // initializer
			sub, err := p.sub()
			if err != nil {
				return err
			}
			t := TensorProto{}
			if err := sub.readTensorProto(&t); err != nil {
				return err
			}
			m.Initializers = append(m.Initializers, t)
			return nil
		case 11, 12: // input, output
			sub, err := p.sub()
			if err != nil {
				return err
			}
			vi := ValueInfoProto{}
			if err := sub.readValueInfoProto(&vi); err != nil {
				return err
			}
			if fieldNum == 11 {
				m.Inputs = append(m.Inputs, vi)
			} else {
				m.Outputs = append(m.Outputs, vi)
			}
			return nil
		default:
			return errSkip
		}
	})
}

// readNodeProto reads NodeProto message.
func (p *parser) readNodeProto(m *NodeProto) error {
	return p.fields(func(fieldNum, _ int) error {
		switch fieldNum {
		case 1: // input
			s, err := p.readString()
			m.Inputs = append(m.Inputs, s)
			return err
		case 2: // output
			s, err := p.readString()
			m.Outputs = append(m.Outputs, s)
			return err
		case 3: // name
			var err error
			m.Name, err = p.readString()
			return err
		case 4: // op_type
			var err error
			m.OpType, err = p.readString()
			return err
		case 5: // attribute
			sub, err := p.sub()
			if err != nil {
				return err
			}
			attr := AttributeProto{}
			if err := sub.readAttributeProto(&attr); err != nil {
				return err
			}
			m.Attributes = append(m.Attributes, attr)
			return nil
		case 7: // domain
			var err error
			m.Domain, err = p.readString()
			return err
		default:
			return errSkip
		}
	})
}

// readTensorProto reads the name, type and dims of a TensorProto. Data fields are skipped.
func (p *parser) readTensorProto(m *TensorProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		switch fieldNum {
		case 1: // dims (repeated int64, packed or not)
			dims, err := p.readRepeatedVarint(wireType)
			m.Dims = append(m.Dims, dims...)
			return err
		case 2: // data_type
			var err error
			m.DataType, err = p.readInt32()
			return err
		case 8: // name
			var err error
			m.Name, err = p.readString()
			return err
		default:
			return errSkip
		}
	})
}

// readValueInfoProto reads ValueInfoProto, flattening type.tensor_type.
func (p *parser) readValueInfoProto(m *ValueInfoProto) error {
	return p.fields(func(fieldNum, _ int) error {
		switch fieldNum {
		case 1: // name
			var err error
			m.Name, err = p.readString()
			return err
		case 2: // type
			typ, err := p.sub()
			if err != nil {
				return err
			}
			return typ.fields(func(fieldNum, _ int) error {
				if fieldNum != 1 { // tensor_type
					return errSkip
				}
				tt, err := typ.sub()
				if err != nil {
					return err
				}
				return tt.readTensorTypeProto(m)
			})
		default:
			return errSkip
		}
	})
}

// readTensorTypeProto reads elem_type and shape into m.
func (p *parser) readTensorTypeProto(m *ValueInfoProto) error {
	return p.fields(func(fieldNum, _ int) error {
		switch fieldNum {
		case 1: // elem_type
			var err error
			m.ElemType, err = p.readInt32()
			return err
		case 2: // shape
			shape, err := p.sub()
			if err != nil {
				return err
			}
			return shape.fields(func(fieldNum, _ int) error {
				if fieldNum != 1 { // dim
					return errSkip
				}
				sub, err := shape.sub()
				if err != nil {
					return err
				}
				dim := DimensionProto{}
				if err := sub.readDimensionProto(&dim); err != nil {
					return err
				}
				m.Dims = append(m.Dims, dim)
				return nil
			})
		default:
			return errSkip
		}
	})
}

// readDimensionProto reads DimensionProto message.
func (p *parser) readDimensionProto(m *DimensionProto) error {
	return p.fields(func(fieldNum, _ int) error {
		var err error
		switch fieldNum {
		case 1: // dim_value
			m.DimValue, err = p.readVarint()
		case 2: // dim_param
			m.DimParam, err = p.readString()
		default:
			return errSkip
		}
		return err
	})
}

// readAttributeProto reads AttributeProto message.
func (p *parser) readAttributeProto(m *AttributeProto) error {
	return p.fields(func(fieldNum, wireType int) error {
		var err error
		switch fieldNum {
		case 1: // name
			m.Name, err = p.readString()
		case 2: // f
			m.F, err = p.readFloat32()
		case 3: // i
			m.I, err = p.readVarint()
		case 4: // s
			m.S, err = p.readBytes()
		case 8: // ints
			var ints []int64
			ints, err = p.readRepeatedVarint(wireType)
			m.Ints = append(m.Ints, ints...)
		case 20: // type
			m.Type, err = p.readInt32()
		default:
			return errSkip
		}
		return err
	})
}

// readOperatorSetID reads OperatorSetID message.
func (p *parser) readOperatorSetID(m *OperatorSetID) error {
	return p.fields(func(fieldNum, _ int) error {
		var err error
		switch fieldNum {
		case 1: // domain
			m.Domain, err = p.readString()
		case 2: // version
			m.Version, err = p.readVarint()
		default:
			return errSkip
		}
		return err
	})
}

// readRepeatedVarint reads one element, or a packed run when wireType is wireBytes.
func (p *parser) readRepeatedVarint(wireType int) ([]int64, error) {
	if wireType != wireBytes {
		v, err := p.readVarint()
		if err != nil {
			return nil, err
		}
		return []int64{v}, nil
	}
	sub, err := p.sub()
	if err != nil {
		return nil, err
	}
	var out []int64
	for sub.pos < len(sub.data) {
		v, err := sub.readVarint()
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// readTag reads a protobuf field tag.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	fieldNum = int(tag >> 3)
	wireType = int(tag & 0x7)
	if fieldNum == 0 {
		return 0, 0, errors.New("invalid field number 0")
	}
	return fieldNum, wireType, nil
}

// readVarint reads a varint-encoded int64.
func (p *parser) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if p.pos >= len(p.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: Protobuf varint fits in int64.
}

// readInt32 reads a varint-encoded int32.
func (p *parser) readInt32() (int32, error) {
	v, err := p.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil //nolint:gosec // G115: Protobuf varint fits in int32.
}

// readBytes reads a length-delimited byte slice.
func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 || length > int64(len(p.data)-p.pos) {
		return nil, io.ErrUnexpectedEOF
	}
	end := p.pos + int(length)
	result := p.data[p.pos:end]
	p.pos = end
	return result, nil
}

// readFloat32 reads a 32-bit float.
func (p *parser) readFloat32() (float32, error) {
	if p.pos+4 > len(p.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField skips a field based on wire type.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		if p.pos+8 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 8
		return nil
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		if p.pos+4 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}

package packstream

import (
	"encoding/binary"
	"math"
)

// Decode reads a single Value from the front of p, returning the value and
// the number of bytes consumed, please read @spec section 4.1 "Decoding
// contract". Tiny-int markers are decoded from the marker byte itself.
func Decode(p []byte) (Value, int, error) {
	if len(p) == 0 {
		return Value{}, 0, ErrTruncatedInput
	}
	b := p[0]

	switch {
	case b <= markerTinyIntPositiveMax:
		return IntValue(int64(b)), 1, nil
	case b >= markerTinyIntNegativeMin:
		return IntValue(int64(int8(b))), 1, nil
	case isTinyText(b):
		return decodeTextBody(p[1:], int(b&0x0F), 1)
	case isTinyList(b):
		return decodeListBody(p[1:], int(b&0x0F), 1)
	case isTinyMap(b):
		return decodeMapBody(p[1:], int(b&0x0F), 1)
	case isTinyStruct(b):
		return decodeStructBody(p[1:], int(b&0x0F), 1)
	}

	switch marker(b) {
	case markerNull:
		return NullValue(), 1, nil
	case markerFalse:
		return BoolValue(false), 1, nil
	case markerTrue:
		return BoolValue(true), 1, nil
	case markerFloat64:
		if len(p) < 9 {
			return Value{}, 0, ErrTruncatedInput
		}
		bits := binary.BigEndian.Uint64(p[1:9])
		return FloatValue(math.Float64frombits(bits)), 9, nil
	case markerInt8:
		if len(p) < 2 {
			return Value{}, 0, ErrTruncatedInput
		}
		return IntValue(int64(int8(p[1]))), 2, nil
	case markerInt16:
		if len(p) < 3 {
			return Value{}, 0, ErrTruncatedInput
		}
		return IntValue(int64(int16(binary.BigEndian.Uint16(p[1:3])))), 3, nil
	case markerInt32:
		if len(p) < 5 {
			return Value{}, 0, ErrTruncatedInput
		}
		return IntValue(int64(int32(binary.BigEndian.Uint32(p[1:5])))), 5, nil
	case markerInt64:
		if len(p) < 9 {
			return Value{}, 0, ErrTruncatedInput
		}
		return IntValue(int64(binary.BigEndian.Uint64(p[1:9]))), 9, nil
	case markerText8:
		if len(p) < 2 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeTextBody(p[2:], int(p[1]), 2)
	case markerText16:
		if len(p) < 3 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeTextBody(p[3:], int(binary.BigEndian.Uint16(p[1:3])), 3)
	case markerText32:
		if len(p) < 5 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeTextBody(p[5:], int(binary.BigEndian.Uint32(p[1:5])), 5)
	case markerList8:
		if len(p) < 2 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeListBody(p[2:], int(p[1]), 2)
	case markerList16:
		if len(p) < 3 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeListBody(p[3:], int(binary.BigEndian.Uint16(p[1:3])), 3)
	case markerList32:
		if len(p) < 5 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeListBody(p[5:], int(binary.BigEndian.Uint32(p[1:5])), 5)
	case markerMap8:
		if len(p) < 2 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeMapBody(p[2:], int(p[1]), 2)
	case markerMap16:
		if len(p) < 3 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeMapBody(p[3:], int(binary.BigEndian.Uint16(p[1:3])), 3)
	case markerMap32:
		if len(p) < 5 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeMapBody(p[5:], int(binary.BigEndian.Uint32(p[1:5])), 5)
	case markerStruct8:
		if len(p) < 2 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeStructBody(p[2:], int(p[1]), 2)
	case markerStruct16:
		if len(p) < 3 {
			return Value{}, 0, ErrTruncatedInput
		}
		return decodeStructBody(p[3:], int(binary.BigEndian.Uint16(p[1:3])), 3)
	}

	return Value{}, 0, ErrMalformedMarker
}

func decodeTextBody(p []byte, size int, headerLen int) (Value, int, error) {
	if size > len(p) {
		return Value{}, 0, ErrSizeOverflow
	}
	return TextValue(string(p[:size])), headerLen + size, nil
}

func decodeListBody(p []byte, count int, headerLen int) (Value, int, error) {
	vs := make([]Value, 0, count)
	consumed := headerLen
	for i := 0; i < count; i++ {
		v, n, err := Decode(p)
		if err != nil {
			return Value{}, 0, err
		}
		vs = append(vs, v)
		p = p[n:]
		consumed += n
	}
	return ListValue(vs...), consumed, nil
}

func decodeMapBody(p []byte, count int, headerLen int) (Value, int, error) {
	m := NewMap()
	consumed := headerLen
	for i := 0; i < count; i++ {
		kv, n, err := Decode(p)
		if err != nil {
			return Value{}, 0, err
		}
		key, ok := kv.Text()
		if !ok {
			return Value{}, 0, ErrMalformedMarker
		}
		p = p[n:]
		consumed += n

		v, n2, err := Decode(p)
		if err != nil {
			return Value{}, 0, err
		}
		m.Set(key, v)
		p = p[n2:]
		consumed += n2
	}
	return MapValue(m), consumed, nil
}

func decodeStructBody(p []byte, fieldCount int, headerLen int) (Value, int, error) {
	if len(p) < 1 {
		return Value{}, 0, ErrTruncatedInput
	}
	tag := p[0]
	p = p[1:]
	consumed := headerLen + 1

	fields := make([]Value, 0, fieldCount)
	for i := 0; i < fieldCount; i++ {
		v, n, err := Decode(p)
		if err != nil {
			return Value{}, 0, err
		}
		fields = append(fields, v)
		p = p[n:]
		consumed += n
	}

	v, err := structureToValue(tag, fields)
	if err != nil {
		return Value{}, 0, err
	}
	return v, consumed, nil
}

func structureToValue(tag byte, fields []Value) (Value, error) {
	switch tag {
	case SigNode:
		if len(fields) != 3 {
			return Value{}, ErrUnexpectedTag
		}
		id, _ := fields[0].Int()
		labels, err := textList(fields[1])
		if err != nil {
			return Value{}, err
		}
		props, _ := fields[2].Map()
		return NodeValue(&Node{ID: id, Labels: labels, Properties: props}), nil
	case SigRelationship:
		if len(fields) != 5 {
			return Value{}, ErrUnexpectedTag
		}
		id, _ := fields[0].Int()
		start, _ := fields[1].Int()
		end, _ := fields[2].Int()
		typ, _ := fields[3].Text()
		props, _ := fields[4].Map()
		return RelationshipValue(&Relationship{
			ID: id, StartNodeID: start, EndNodeID: end, Type: typ, Properties: props,
		}), nil
	case SigUnboundRelationship:
		if len(fields) != 3 {
			return Value{}, ErrUnexpectedTag
		}
		id, _ := fields[0].Int()
		typ, _ := fields[1].Text()
		props, _ := fields[2].Map()
		return UnboundRelationshipValue(&UnboundRelationship{ID: id, Type: typ, Properties: props}), nil
	case SigPath:
		if len(fields) != 3 {
			return Value{}, ErrUnexpectedTag
		}
		nodeVals, _ := fields[0].List()
		nodes := make([]Node, len(nodeVals))
		for i, nv := range nodeVals {
			n, ok := nv.Node()
			if !ok {
				return Value{}, ErrUnexpectedTag
			}
			nodes[i] = *n
		}
		relVals, _ := fields[1].List()
		rels := make([]UnboundRelationship, len(relVals))
		for i, rv := range relVals {
			r, ok := rv.UnboundRelationship()
			if !ok {
				return Value{}, ErrUnexpectedTag
			}
			rels[i] = *r
		}
		seqVals, _ := fields[2].List()
		seq := make([]int64, len(seqVals))
		for i, sv := range seqVals {
			s, ok := sv.Int()
			if !ok {
				return Value{}, ErrUnexpectedTag
			}
			seq[i] = s
		}
		return PathValue(&Path{Nodes: nodes, Relationships: rels, Sequence: seq}), nil
	default:
		return StructureValue(&Structure{Tag: tag, Fields: fields}), nil
	}
}

func textList(v Value) ([]string, error) {
	vs, ok := v.List()
	if !ok {
		return nil, ErrUnexpectedTag
	}
	out := make([]string, len(vs))
	for i, item := range vs {
		s, ok := item.Text()
		if !ok {
			return nil, ErrUnexpectedTag
		}
		out[i] = s
	}
	return out, nil
}

// DecodeStructure decodes a single PackStream structure from p, failing
// with ErrUnexpectedTag if its signature does not match expectedTag. It is
// meant for message structures (e.g. a RUN request read back off the wire)
// whose tags are not part of the Value sum type.
func DecodeStructure(p []byte, expectedTag byte) ([]Value, int, error) {
	v, n, err := Decode(p)
	if err != nil {
		return nil, 0, err
	}
	s, ok := v.Structure()
	if !ok {
		// A known graph signature was decoded as a concrete Value kind
		// instead of KindStructure; it is rejected whatever expectedTag is
		// (request/response tags never collide with graph signatures).
		return nil, 0, ErrUnexpectedTag
	}
	if s.Tag != expectedTag {
		return nil, 0, ErrUnexpectedTag
	}
	return s.Fields, n, nil
}

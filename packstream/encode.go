package packstream

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes v into its canonical PackStream byte form, please read
// @spec section 4.1 "Encoding policy": integers use the smallest form that
// fits; texts/lists/maps/structs use the tiniest container form whose size
// fits. Encoding is a pure function of the input.
func Encode(v Value) ([]byte, error) {
	var buf []byte
	var err error
	if buf, err = appendValue(buf, v); err != nil {
		return nil, err
	}
	return buf, nil
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindNull:
		return append(buf, byte(markerNull)), nil
	case KindBool:
		if v.boolVal {
			return append(buf, byte(markerTrue)), nil
		}
		return append(buf, byte(markerFalse)), nil
	case KindInt:
		return appendInt(buf, v.intVal), nil
	case KindFloat:
		return appendFloat(buf, v.floatVal), nil
	case KindText:
		return appendText(buf, v.textVal), nil
	case KindList:
		return appendList(buf, v.listVal)
	case KindMap:
		return appendMap(buf, v.mapVal)
	case KindNode:
		return appendStruct(buf, SigNode, []Value{
			IntValue(v.node.ID),
			stringListValue(v.node.Labels),
			MapValue(orEmpty(v.node.Properties)),
		})
	case KindRelationship:
		return appendStruct(buf, SigRelationship, []Value{
			IntValue(v.rel.ID),
			IntValue(v.rel.StartNodeID),
			IntValue(v.rel.EndNodeID),
			TextValue(v.rel.Type),
			MapValue(orEmpty(v.rel.Properties)),
		})
	case KindUnboundRelationship:
		return appendStruct(buf, SigUnboundRelationship, []Value{
			IntValue(v.unbound.ID),
			TextValue(v.unbound.Type),
			MapValue(orEmpty(v.unbound.Properties)),
		})
	case KindPath:
		nodes := make([]Value, len(v.path.Nodes))
		for i := range v.path.Nodes {
			n := v.path.Nodes[i]
			nodes[i] = NodeValue(&n)
		}
		rels := make([]Value, len(v.path.Relationships))
		for i := range v.path.Relationships {
			r := v.path.Relationships[i]
			rels[i] = UnboundRelationshipValue(&r)
		}
		seq := make([]Value, len(v.path.Sequence))
		for i, s := range v.path.Sequence {
			seq[i] = IntValue(s)
		}
		return appendStruct(buf, SigPath, []Value{
			ListValue(nodes...),
			ListValue(rels...),
			ListValue(seq...),
		})
	case KindStructure:
		return appendStruct(buf, v.structVal.Tag, v.structVal.Fields)
	default:
		return nil, fmt.Errorf("packstream: encode unknown kind %v", v.kind)
	}
}

func orEmpty(m *Map) *Map {
	if m == nil {
		return NewMap()
	}
	return m
}

func stringListValue(ss []string) Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = TextValue(s)
	}
	return ListValue(vs...)
}

func appendInt(buf []byte, i int64) []byte {
	switch {
	case i >= -16 && i <= markerTinyIntPositiveMax:
		return append(buf, byte(int8(i)))
	case i >= math.MinInt8 && i <= math.MaxInt8:
		return append(buf, byte(markerInt8), byte(int8(i)))
	case i >= math.MinInt16 && i <= math.MaxInt16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(int16(i)))
		return append(append(buf, byte(markerInt16)), b...)
	case i >= math.MinInt32 && i <= math.MaxInt32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(int32(i)))
		return append(append(buf, byte(markerInt32)), b...)
	default:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(i))
		return append(append(buf, byte(markerInt64)), b...)
	}
}

func appendFloat(buf []byte, f float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(f))
	return append(append(buf, byte(markerFloat64)), b...)
}

func appendText(buf []byte, s string) []byte {
	p := []byte(s)
	n := len(p)
	switch {
	case n <= 15:
		buf = append(buf, byte(markerTinyTextMin)|byte(n))
	case n <= math.MaxUint8:
		b := make([]byte, 1)
		b[0] = byte(n)
		buf = append(append(buf, byte(markerText8)), b...)
	case n <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		buf = append(append(buf, byte(markerText16)), b...)
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		buf = append(append(buf, byte(markerText32)), b...)
	}
	return append(buf, p...)
}

func appendList(buf []byte, vs []Value) ([]byte, error) {
	n := len(vs)
	switch {
	case n <= 15:
		buf = append(buf, byte(markerTinyListMin)|byte(n))
	case n <= math.MaxUint8:
		buf = append(append(buf, byte(markerList8)), byte(n))
	case n <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		buf = append(append(buf, byte(markerList16)), b...)
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		buf = append(append(buf, byte(markerList32)), b...)
	}
	var err error
	for _, v := range vs {
		if buf, err = appendValue(buf, v); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendMap(buf []byte, m *Map) ([]byte, error) {
	m = orEmpty(m)
	n := m.Len()
	switch {
	case n <= 15:
		buf = append(buf, byte(markerTinyMapMin)|byte(n))
	case n <= math.MaxUint8:
		buf = append(append(buf, byte(markerMap8)), byte(n))
	case n <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		buf = append(append(buf, byte(markerMap16)), b...)
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		buf = append(append(buf, byte(markerMap32)), b...)
	}
	var err error
	m.Range(func(k string, v Value) bool {
		buf = appendText(buf, k)
		buf, err = appendValue(buf, v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendStruct(buf []byte, tag byte, fields []Value) ([]byte, error) {
	n := len(fields)
	switch {
	case n <= 15:
		buf = append(buf, byte(markerTinyStructMin)|byte(n), tag)
	case n <= math.MaxUint8:
		buf = append(append(buf, byte(markerStruct8)), byte(n), tag)
	case n <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		buf = append(buf, byte(markerStruct16))
		buf = append(buf, b...)
		buf = append(buf, tag)
	default:
		return nil, fmt.Errorf("packstream: struct with %d fields exceeds u16 size", n)
	}
	var err error
	for _, f := range fields {
		if buf, err = appendValue(buf, f); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// EncodeStructure encodes tag/fields as a PackStream structure directly,
// without boxing them in a Value. The bolt package uses this for request
// messages (HELLO, RUN, ...) whose tags are not part of the Value sum type.
func EncodeStructure(tag byte, fields ...Value) ([]byte, error) {
	return appendStruct(nil, tag, fields)
}

package tuple

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/types"
)

// Encoded row layout:
//
//	[null bitmap][fixed-width fields in schema order][text values]
//
// The bitmap holds one bit per column (bit i set means column i is
// NULL). Numeric fields take 8 bytes big-endian, booleans 1 byte.
// Text-kinded columns occupy no fixed bytes; their values follow the
// fixed region in schema order as [length:4][bytes]. NULL columns
// contribute zeroed fixed bytes and no tail entry.

// Encode serializes row according to its schema. Decode(schema,
// Encode(row)) reproduces the row exactly.
func Encode(row *Row) ([]byte, error) {
	schema := row.Schema
	buf := make([]byte, schema.FixedSize(), schema.FixedSize()+32)

	fixedOff := schema.BitmapSize()
	var tail []byte

	for i, col := range schema.Columns {
		field, err := row.GetField(i)
		if err != nil {
			return nil, err
		}

		if field.Kind() == types.NullKind {
			buf[i/8] |= 1 << (i % 8)
			fixedOff += col.Type.FixedWidth()
			continue
		}
		if field.Kind() != col.Type.Kind() {
			return nil, gerr.TypeMismatch("column %s expects %s, got %s",
				col.Name, col.Type, field.Kind())
		}

		switch f := field.(type) {
		case *types.IntField:
			binary.BigEndian.PutUint64(buf[fixedOff:], uint64(f.Value))
		case *types.FloatField:
			binary.BigEndian.PutUint64(buf[fixedOff:], math.Float64bits(f.Value))
		case *types.BoolField:
			if f.Value {
				buf[fixedOff] = 1
			}
		case *types.TextField:
			entry := make([]byte, 4+len(f.Value))
			binary.BigEndian.PutUint32(entry, uint32(len(f.Value)))
			copy(entry[4:], f.Value)
			tail = append(tail, entry...)
		default:
			return nil, gerr.TypeMismatch("column %s: unsupported field kind %s",
				col.Name, field.Kind())
		}
		fixedOff += col.Type.FixedWidth()
	}

	return append(buf, tail...), nil
}

// Decode is the exact inverse of Encode.
func Decode(schema *Schema, data []byte) (*Row, error) {
	bitmapSize := schema.BitmapSize()
	if len(data) < schema.FixedSize() {
		return nil, fmt.Errorf("encoded row too short: %d bytes, need at least %d",
			len(data), schema.FixedSize())
	}

	row := NewRow(schema)
	fixedOff := bitmapSize
	tailOff := schema.FixedSize()

	for i, col := range schema.Columns {
		isNull := data[i/8]&(1<<(i%8)) != 0
		if isNull {
			fixedOff += col.Type.FixedWidth()
			continue
		}

		var field types.Field
		switch col.Type.Kind() {
		case types.Int64Kind:
			field = types.NewIntField(int64(binary.BigEndian.Uint64(data[fixedOff:])))
		case types.Float64Kind:
			field = types.NewFloatField(math.Float64frombits(binary.BigEndian.Uint64(data[fixedOff:])))
		case types.BoolKind:
			field = types.NewBoolField(data[fixedOff] != 0)
		case types.TextKind:
			if tailOff+4 > len(data) {
				return nil, fmt.Errorf("encoded row truncated in text length for column %s", col.Name)
			}
			length := int(binary.BigEndian.Uint32(data[tailOff:]))
			tailOff += 4
			if tailOff+length > len(data) {
				return nil, fmt.Errorf("encoded row truncated in text value for column %s", col.Name)
			}
			field = types.NewTextField(string(data[tailOff : tailOff+length]))
			tailOff += length
		}
		fixedOff += col.Type.FixedWidth()

		if err := row.SetField(i, field); err != nil {
			return nil, err
		}
	}

	return row, nil
}

// EncodedSize returns the number of bytes Encode would produce for
// row, without materializing the encoding.
func EncodedSize(row *Row) (int, error) {
	size := row.Schema.FixedSize()
	for i := range row.Schema.Columns {
		field, err := row.GetField(i)
		if err != nil {
			return 0, err
		}
		if f, ok := field.(*types.TextField); ok {
			size += 4 + len(f.Value)
		}
	}
	return size, nil
}

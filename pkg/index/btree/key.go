package btree

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/types"
)

// Index keys are serialized as a kind byte followed by the value:
// 8 bytes big-endian for numeric kinds, [len:2][bytes] for text.
// Booleans and NULL are not indexable; primary keys are NOT NULL by
// contract.

func keySize(key types.Field) int {
	switch k := key.(type) {
	case *types.IntField, *types.FloatField:
		return 1 + 8
	case *types.TextField:
		return 1 + 2 + len(k.Value)
	default:
		return 0
	}
}

func encodeKey(buf []byte, key types.Field) (int, error) {
	switch k := key.(type) {
	case *types.IntField:
		buf[0] = byte(types.Int64Kind)
		binary.BigEndian.PutUint64(buf[1:], uint64(k.Value))
		return 9, nil
	case *types.FloatField:
		buf[0] = byte(types.Float64Kind)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(k.Value))
		return 9, nil
	case *types.TextField:
		if len(k.Value) > 0xFFFF {
			return 0, fmt.Errorf("index key too long: %d bytes", len(k.Value))
		}
		buf[0] = byte(types.TextKind)
		binary.BigEndian.PutUint16(buf[1:], uint16(len(k.Value)))
		copy(buf[3:], k.Value)
		return 3 + len(k.Value), nil
	default:
		return 0, fmt.Errorf("unindexable key kind %s", key.Kind())
	}
}

func decodeKey(buf []byte) (types.Field, int, error) {
	if len(buf) < 1 {
		return nil, 0, fmt.Errorf("truncated index key")
	}
	switch types.Kind(buf[0]) {
	case types.Int64Kind:
		if len(buf) < 9 {
			return nil, 0, fmt.Errorf("truncated int index key")
		}
		return types.NewIntField(int64(binary.BigEndian.Uint64(buf[1:]))), 9, nil
	case types.Float64Kind:
		if len(buf) < 9 {
			return nil, 0, fmt.Errorf("truncated float index key")
		}
		return types.NewFloatField(math.Float64frombits(binary.BigEndian.Uint64(buf[1:]))), 9, nil
	case types.TextKind:
		if len(buf) < 3 {
			return nil, 0, fmt.Errorf("truncated text index key")
		}
		l := int(binary.BigEndian.Uint16(buf[1:]))
		if len(buf) < 3+l {
			return nil, 0, fmt.Errorf("truncated text index key value")
		}
		return types.NewTextField(string(buf[3 : 3+l])), 3 + l, nil
	default:
		return nil, 0, fmt.Errorf("unknown index key kind %d", buf[0])
	}
}

// keyLess reports a < b. Keys in one tree always share a kind.
func keyLess(a, b types.Field) bool {
	less, _ := a.Compare(primitives.LessThan, b)
	return less
}

// keyEqual reports a == b.
func keyEqual(a, b types.Field) bool {
	return a.Equals(b)
}

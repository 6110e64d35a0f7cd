package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// IntField holds a 64-bit signed integer value. Both INT and BIGINT
// columns carry IntField values at runtime.
type IntField struct {
	Value int64
}

func NewIntField(value int64) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Serialize(w io.Writer) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(f.Value))
	_, err := w.Write(buf)
	return err
}

func (f *IntField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*IntField)
	if !ok {
		return false, fmt.Errorf("cannot compare int64 with %s", other.Kind())
	}
	return compareOrdered(f.Value, o.Value, op), nil
}

func (f *IntField) Kind() Kind {
	return Int64Kind
}

func (f *IntField) String() string {
	return strconv.FormatInt(f.Value, 10)
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	return ok && f.Value == o.Value
}

func compareOrdered[T int64 | float64 | string](a, b T, op primitives.Predicate) bool {
	switch op {
	case primitives.Equals:
		return a == b
	case primitives.NotEqual:
		return a != b
	case primitives.LessThan:
		return a < b
	case primitives.GreaterThan:
		return a > b
	case primitives.LessThanOrEqual:
		return a <= b
	case primitives.GreaterThanOrEqual:
		return a >= b
	default:
		return false
	}
}

package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// FloatField holds a 64-bit floating point value. Both FLOAT and
// DOUBLE columns carry FloatField values at runtime.
type FloatField struct {
	Value float64
}

func NewFloatField(value float64) *FloatField {
	return &FloatField{Value: value}
}

func (f *FloatField) Serialize(w io.Writer) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(f.Value))
	_, err := w.Write(buf)
	return err
}

func (f *FloatField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*FloatField)
	if !ok {
		return false, fmt.Errorf("cannot compare float64 with %s", other.Kind())
	}
	return compareOrdered(f.Value, o.Value, op), nil
}

func (f *FloatField) Kind() Kind {
	return Float64Kind
}

func (f *FloatField) String() string {
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

func (f *FloatField) Equals(other Field) bool {
	o, ok := other.(*FloatField)
	return ok && f.Value == o.Value
}

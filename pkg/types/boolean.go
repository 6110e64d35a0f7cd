package types

import (
	"fmt"
	"io"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// BoolField holds a boolean value.
type BoolField struct {
	Value bool
}

func NewBoolField(value bool) *BoolField {
	return &BoolField{Value: value}
}

func (f *BoolField) Serialize(w io.Writer) error {
	b := byte(0)
	if f.Value {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

// Compare supports equality operators only; booleans are unordered.
func (f *BoolField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*BoolField)
	if !ok {
		return false, fmt.Errorf("cannot compare bool with %s", other.Kind())
	}
	switch op {
	case primitives.Equals:
		return f.Value == o.Value, nil
	case primitives.NotEqual:
		return f.Value != o.Value, nil
	default:
		return false, fmt.Errorf("booleans are unordered, %s not supported", op)
	}
}

func (f *BoolField) Kind() Kind {
	return BoolKind
}

func (f *BoolField) String() string {
	if f.Value {
		return "true"
	}
	return "false"
}

func (f *BoolField) Equals(other Field) bool {
	o, ok := other.(*BoolField)
	return ok && f.Value == o.Value
}

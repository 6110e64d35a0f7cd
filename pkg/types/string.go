package types

import (
	"fmt"
	"io"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// TextField holds a variable-length string value. TEXT and VARCHAR
// columns carry TextField values at runtime; the VARCHAR length cap is
// enforced by the schema, not by the field.
type TextField struct {
	Value string
}

func NewTextField(value string) *TextField {
	return &TextField{Value: value}
}

func (f *TextField) Serialize(w io.Writer) error {
	_, err := io.WriteString(w, f.Value)
	return err
}

// Compare performs lexicographic comparison against another TextField.
func (f *TextField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*TextField)
	if !ok {
		return false, fmt.Errorf("cannot compare text with %s", other.Kind())
	}
	return compareOrdered(f.Value, o.Value, op), nil
}

func (f *TextField) Kind() Kind {
	return TextKind
}

func (f *TextField) String() string {
	return f.Value
}

func (f *TextField) Equals(other Field) bool {
	o, ok := other.(*TextField)
	return ok && f.Value == o.Value
}

package types

import (
	"fmt"
	"io"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// Null is the shared NULL field value.
var Null Field = &NullField{}

// NullField is the absent value. Comparing through NULL is an error
// at this layer; the engine's WHERE evaluator short-circuits NULL
// operands to unknown before Compare is ever reached.
type NullField struct{}

func (f *NullField) Serialize(w io.Writer) error {
	return nil
}

func (f *NullField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return false, fmt.Errorf("cannot compare NULL")
}

func (f *NullField) Kind() Kind {
	return NullKind
}

func (f *NullField) String() string {
	return "NULL"
}

func (f *NullField) Equals(other Field) bool {
	_, ok := other.(*NullField)
	return ok
}

package types

import (
	"io"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// Field is a single typed value inside a row.
type Field interface {
	// Serialize writes the field's canonical byte representation:
	// 8 bytes big-endian for numeric kinds, 1 byte for booleans,
	// the raw bytes for text.
	Serialize(w io.Writer) error

	// Compare applies op between this field and other. Comparing
	// fields of different kinds, or comparing against NULL, reports
	// false for every operator.
	Compare(op primitives.Predicate, other Field) (bool, error)

	// Kind returns the runtime kind of this field.
	Kind() Kind

	// String renders the field for display.
	String() string

	// Equals reports whether other holds the same kind and value.
	Equals(other Field) bool
}

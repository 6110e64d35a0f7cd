// Package types defines the declared SQL column types and the runtime
// field values that rows carry.
package types

import "fmt"

// Type is a column's declared SQL data type.
type Type int

const (
	IntType Type = iota
	BigIntType
	FloatType
	DoubleType
	TextType
	BooleanType
	VarcharType
)

// String returns the SQL spelling of the type.
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case BigIntType:
		return "BIGINT"
	case FloatType:
		return "FLOAT"
	case DoubleType:
		return "DOUBLE"
	case TextType:
		return "TEXT"
	case BooleanType:
		return "BOOLEAN"
	case VarcharType:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// Kind is the runtime representation of a value. Several declared
// types share one runtime kind: INT and BIGINT are both Int64Kind,
// FLOAT and DOUBLE are both Float64Kind, TEXT and VARCHAR are both
// TextKind.
type Kind int

const (
	Int64Kind Kind = iota
	Float64Kind
	TextKind
	BoolKind
	NullKind
)

func (k Kind) String() string {
	switch k {
	case Int64Kind:
		return "int64"
	case Float64Kind:
		return "float64"
	case TextKind:
		return "text"
	case BoolKind:
		return "bool"
	case NullKind:
		return "null"
	default:
		return "unknown"
	}
}

// Kind maps a declared type to its runtime kind.
func (t Type) Kind() Kind {
	switch t {
	case IntType, BigIntType:
		return Int64Kind
	case FloatType, DoubleType:
		return Float64Kind
	case TextType, VarcharType:
		return TextKind
	case BooleanType:
		return BoolKind
	default:
		panic(fmt.Sprintf("unknown type %d", int(t)))
	}
}

// FixedWidth returns the number of bytes a value of this type occupies
// in the fixed-width region of an encoded row. Text-kinded types live
// entirely in the variable-length tail and occupy no fixed bytes.
func (t Type) FixedWidth() int {
	switch t.Kind() {
	case Int64Kind, Float64Kind:
		return 8
	case BoolKind:
		return 1
	default:
		return 0
	}
}

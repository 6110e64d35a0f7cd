// Package gerr defines the closed error taxonomy shared by every
// storage component. Callers match on Kind rather than parsing
// message text.
package gerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the engine's closed variants.
type Kind int

const (
	// KindSyntax reports malformed input; produced by the parser, never
	// by the storage core itself.
	KindSyntax Kind = iota

	// KindTableExists reports CREATE TABLE against an existing name.
	KindTableExists

	// KindTableNotFound reports a statement against an unknown table.
	KindTableNotFound

	// KindColumnNotFound reports a reference to an unknown column.
	KindColumnNotFound

	// KindTypeMismatch reports a value whose runtime type does not
	// match the column's declared type, or a constraint violation such
	// as a duplicate primary key.
	KindTypeMismatch

	// KindIo wraps a disk or file failure.
	KindIo

	// KindNotImplemented reports a declared-but-unsupported operation
	// (joins, multi-table statements).
	KindNotImplemented

	// KindOther is the uncategorized fallback.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindTableExists:
		return "table exists"
	case KindTableNotFound:
		return "table not found"
	case KindColumnNotFound:
		return "column not found"
	case KindTypeMismatch:
		return "type mismatch"
	case KindIo:
		return "io error"
	case KindNotImplemented:
		return "not implemented"
	default:
		return "error"
	}
}

// Error is a structured engine error. Table and Column carry the
// context a caller needs to report the failure without parsing Message.
type Error struct {
	Kind    Kind
	Table   string
	Column  string
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTableExists:
		return fmt.Sprintf("table %s already exists", e.Table)
	case KindTableNotFound:
		return fmt.Sprintf("table %s not found", e.Table)
	case KindColumnNotFound:
		return fmt.Sprintf("column %s not found", e.Column)
	case KindIo:
		if e.Wrapped != nil {
			return fmt.Sprintf("io error: %s: %v", e.Message, e.Wrapped)
		}
		return fmt.Sprintf("io error: %s", e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Syntax builds a KindSyntax error.
func Syntax(format string, args ...any) *Error {
	return &Error{Kind: KindSyntax, Message: fmt.Sprintf(format, args...)}
}

// TableExists builds a KindTableExists error for the named table.
func TableExists(table string) *Error {
	return &Error{Kind: KindTableExists, Table: table}
}

// TableNotFound builds a KindTableNotFound error for the named table.
func TableNotFound(table string) *Error {
	return &Error{Kind: KindTableNotFound, Table: table}
}

// ColumnNotFound builds a KindColumnNotFound error for the named column.
func ColumnNotFound(column string) *Error {
	return &Error{Kind: KindColumnNotFound, Column: column}
}

// TypeMismatch builds a KindTypeMismatch error.
func TypeMismatch(format string, args ...any) *Error {
	return &Error{Kind: KindTypeMismatch, Message: fmt.Sprintf(format, args...)}
}

// Io wraps an underlying I/O failure.
func Io(err error, format string, args ...any) *Error {
	return &Error{Kind: KindIo, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// NotImplemented builds a KindNotImplemented error for the named feature.
func NotImplemented(feature string) *Error {
	return &Error{Kind: KindNotImplemented, Message: feature}
}

// Other builds the uncategorized fallback error.
func Other(format string, args ...any) *Error {
	return &Error{Kind: KindOther, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Errors outside the taxonomy report KindOther.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

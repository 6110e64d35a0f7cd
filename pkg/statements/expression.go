package statements

import (
	"fmt"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/types"
)

// Expression is a boolean WHERE-clause expression tree over column
// references and literal values. Evaluation lives in the engine, which
// resolves column names against the table schema.
type Expression interface {
	String() string
}

// ColumnRef names a column of the selected table.
type ColumnRef struct {
	Name string
}

func (e *ColumnRef) String() string {
	return e.Name
}

// Literal is a constant value.
type Literal struct {
	Value types.Field
}

func (e *Literal) String() string {
	if e.Value.Kind() == types.TextKind {
		return fmt.Sprintf("'%s'", e.Value)
	}
	return e.Value.String()
}

// Comparison applies a comparison operator between two operands.
type Comparison struct {
	Left  Expression
	Op    primitives.Predicate
	Right Expression
}

func (e *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

// And is logical conjunction.
type And struct {
	Left, Right Expression
}

func (e *And) String() string {
	return fmt.Sprintf("(%s AND %s)", e.Left, e.Right)
}

// Or is logical disjunction.
type Or struct {
	Left, Right Expression
}

func (e *Or) String() string {
	return fmt.Sprintf("(%s OR %s)", e.Left, e.Right)
}

// Not is logical negation.
type Not struct {
	Expr Expression
}

func (e *Not) String() string {
	return fmt.Sprintf("NOT (%s)", e.Expr)
}

// IsNull tests a column for NULL (IS NULL / IS NOT NULL).
type IsNull struct {
	Expr   Expression
	Negate bool
}

func (e *IsNull) String() string {
	if e.Negate {
		return fmt.Sprintf("%s IS NOT NULL", e.Expr)
	}
	return fmt.Sprintf("%s IS NULL", e.Expr)
}

package engine

import (
	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// truth is SQL three-valued logic. Any comparison touching NULL is
// unknown, and unknown collapses to not-matching at the filter
// boundary.
type truth int

const (
	truthFalse truth = iota
	truthTrue
	truthUnknown
)

func (t truth) and(other truth) truth {
	if t == truthFalse || other == truthFalse {
		return truthFalse
	}
	if t == truthUnknown || other == truthUnknown {
		return truthUnknown
	}
	return truthTrue
}

func (t truth) or(other truth) truth {
	if t == truthTrue || other == truthTrue {
		return truthTrue
	}
	if t == truthUnknown || other == truthUnknown {
		return truthUnknown
	}
	return truthFalse
}

func (t truth) not() truth {
	switch t {
	case truthTrue:
		return truthFalse
	case truthFalse:
		return truthTrue
	default:
		return truthUnknown
	}
}

// validateWhere resolves every column reference in a WHERE clause
// against the schema up front, so an unknown column fails the
// statement even when no row is ever visited.
func validateWhere(schema *tuple.Schema, expr statements.Expression) error {
	if expr == nil {
		return nil
	}
	switch ex := expr.(type) {
	case *statements.Comparison:
		if err := validateOperand(schema, ex.Left); err != nil {
			return err
		}
		return validateOperand(schema, ex.Right)
	case *statements.And:
		if err := validateWhere(schema, ex.Left); err != nil {
			return err
		}
		return validateWhere(schema, ex.Right)
	case *statements.Or:
		if err := validateWhere(schema, ex.Left); err != nil {
			return err
		}
		return validateWhere(schema, ex.Right)
	case *statements.Not:
		return validateWhere(schema, ex.Expr)
	case *statements.IsNull:
		return validateOperand(schema, ex.Expr)
	default:
		return gerr.Syntax("unsupported WHERE expression %s", expr)
	}
}

func validateOperand(schema *tuple.Schema, expr statements.Expression) error {
	switch ex := expr.(type) {
	case *statements.ColumnRef:
		_, err := schema.ColumnIndex(ex.Name)
		return err
	case *statements.Literal:
		return nil
	default:
		return gerr.Syntax("unsupported operand %s", expr)
	}
}

// matches reports whether a row passes the WHERE clause. A nil clause
// matches everything.
func (e *Engine) matches(schema *tuple.Schema, where statements.Expression, row *tuple.Row) (bool, error) {
	if where == nil {
		return true, nil
	}
	t, err := evaluate(schema, where, row)
	if err != nil {
		return false, err
	}
	return t == truthTrue, nil
}

func evaluate(schema *tuple.Schema, expr statements.Expression, row *tuple.Row) (truth, error) {
	switch ex := expr.(type) {
	case *statements.Comparison:
		return evaluateComparison(schema, ex, row)
	case *statements.And:
		left, err := evaluate(schema, ex.Left, row)
		if err != nil {
			return truthFalse, err
		}
		// short circuit preserves three-valued semantics for AND
		if left == truthFalse {
			return truthFalse, nil
		}
		right, err := evaluate(schema, ex.Right, row)
		if err != nil {
			return truthFalse, err
		}
		return left.and(right), nil
	case *statements.Or:
		left, err := evaluate(schema, ex.Left, row)
		if err != nil {
			return truthFalse, err
		}
		if left == truthTrue {
			return truthTrue, nil
		}
		right, err := evaluate(schema, ex.Right, row)
		if err != nil {
			return truthFalse, err
		}
		return left.or(right), nil
	case *statements.Not:
		inner, err := evaluate(schema, ex.Expr, row)
		if err != nil {
			return truthFalse, err
		}
		return inner.not(), nil
	case *statements.IsNull:
		return evaluateIsNull(schema, ex, row)
	default:
		return truthFalse, gerr.Syntax("unsupported WHERE expression %s", expr)
	}
}

func evaluateComparison(schema *tuple.Schema, cmp *statements.Comparison, row *tuple.Row) (truth, error) {
	left, err := operandValue(schema, cmp.Left, row)
	if err != nil {
		return truthFalse, err
	}
	right, err := operandValue(schema, cmp.Right, row)
	if err != nil {
		return truthFalse, err
	}

	if left.Kind() == types.NullKind || right.Kind() == types.NullKind {
		return truthUnknown, nil
	}

	left, right = alignNumeric(left, right)
	ok, err := left.Compare(cmp.Op, right)
	if err != nil {
		return truthFalse, gerr.TypeMismatch("cannot compare %s with %s: %v",
			left.Kind(), right.Kind(), err)
	}
	if ok {
		return truthTrue, nil
	}
	return truthFalse, nil
}

func evaluateIsNull(schema *tuple.Schema, ex *statements.IsNull, row *tuple.Row) (truth, error) {
	value, err := operandValue(schema, ex.Expr, row)
	if err != nil {
		return truthFalse, err
	}
	isNull := value.Kind() == types.NullKind
	if isNull != ex.Negate {
		return truthTrue, nil
	}
	return truthFalse, nil
}

// operandValue resolves a comparison operand to a concrete field.
func operandValue(schema *tuple.Schema, expr statements.Expression, row *tuple.Row) (types.Field, error) {
	switch ex := expr.(type) {
	case *statements.ColumnRef:
		idx, err := schema.ColumnIndex(ex.Name)
		if err != nil {
			return nil, err
		}
		return row.GetField(idx)
	case *statements.Literal:
		return ex.Value, nil
	default:
		return nil, gerr.Syntax("unsupported operand %s", expr)
	}
}

// alignNumeric widens an integer operand to float when compared with
// a float, so id > 1.5 and price = 2 both behave.
func alignNumeric(left, right types.Field) (types.Field, types.Field) {
	li, lInt := left.(*types.IntField)
	rf, rFloat := right.(*types.FloatField)
	if lInt && rFloat {
		return types.NewFloatField(float64(li.Value)), rf
	}
	lf, lFloat := left.(*types.FloatField)
	ri, rInt := right.(*types.IntField)
	if lFloat && rInt {
		return lf, types.NewFloatField(float64(ri.Value))
	}
	return left, right
}

// Package parser turns SQL text into statement values. It covers the
// statement forms the engine executes: CREATE TABLE, INSERT, SELECT,
// and DELETE over a single table.
package parser

import (
	"strconv"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/types"
)

type Parser struct {
}

// ParseStatement parses one SQL statement, with an optional trailing
// semicolon. Statement forms outside the supported set produce a
// NotImplemented error so callers can distinguish them from typos.
func (p *Parser) ParseStatement(sql string) (statements.Statement, error) {
	lexer := NewLexer(sql)
	token := lexer.NextToken()
	if token.Type == EOF {
		return nil, gerr.Syntax("empty statement")
	}

	lexer.pos = 0

	var stmt statements.Statement
	var err error
	switch token.Type {
	case CREATE:
		stmt, err = p.parseCreateTable(lexer)
	case INSERT:
		stmt, err = p.parseInsert(lexer)
	case SELECT:
		stmt, err = p.parseSelect(lexer)
	case DELETE:
		stmt, err = p.parseDelete(lexer)
	default:
		return nil, gerr.NotImplemented("statement starting with " + token.Value)
	}
	if err != nil {
		return nil, err
	}

	if err := p.expectEnd(lexer); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) expect(lexer *Lexer, typ TokenType, want string) error {
	token := lexer.NextToken()
	if token.Type != typ {
		return gerr.Syntax("expected %s, got %s", want, token.Value)
	}
	return nil
}

func (p *Parser) expectEnd(lexer *Lexer) error {
	token := lexer.NextToken()
	if token.Type == SEMICOLON {
		token = lexer.NextToken()
	}
	if token.Type != EOF {
		return gerr.Syntax("unexpected input after statement: %s", token.Value)
	}
	return nil
}

func (p *Parser) parseCreateTable(lexer *Lexer) (*statements.CreateStatement, error) {
	if err := p.expect(lexer, CREATE, "CREATE"); err != nil {
		return nil, err
	}
	if err := p.expect(lexer, TABLE, "TABLE"); err != nil {
		return nil, err
	}

	token := lexer.NextToken()
	if token.Type != IDENTIFIER {
		return nil, gerr.Syntax("expected table name, got %s", token.Value)
	}
	stmt := statements.NewCreateStatement(token.Value)

	if err := p.expect(lexer, LPAREN, "("); err != nil {
		return nil, err
	}
	for {
		col, err := p.parseColumnDef(lexer)
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)

		token = lexer.NextToken()
		if token.Type == COMMA {
			continue
		}
		if token.Type == RPAREN {
			break
		}
		return nil, gerr.Syntax("expected ',' or ')', got %s", token.Value)
	}
	return stmt, nil
}

func (p *Parser) parseColumnDef(lexer *Lexer) (statements.ColumnDef, error) {
	var col statements.ColumnDef

	token := lexer.NextToken()
	if token.Type != IDENTIFIER {
		return col, gerr.Syntax("expected column name, got %s", token.Value)
	}
	col.Name = token.Value

	token = lexer.NextToken()
	switch token.Type {
	case INT:
		col.Type = types.IntType
	case BIGINT:
		col.Type = types.BigIntType
	case FLOAT:
		col.Type = types.FloatType
	case DOUBLE:
		col.Type = types.DoubleType
	case TEXT:
		col.Type = types.TextType
	case BOOLEAN:
		col.Type = types.BooleanType
	case VARCHAR:
		col.Type = types.VarcharType
		size, err := p.parseVarcharSize(lexer)
		if err != nil {
			return col, err
		}
		col.MaxSize = size
	default:
		return col, gerr.Syntax("expected column type, got %s", token.Value)
	}

	return p.parseColumnConstraints(lexer, col)
}

func (p *Parser) parseVarcharSize(lexer *Lexer) (int, error) {
	if err := p.expect(lexer, LPAREN, "("); err != nil {
		return 0, err
	}
	token := lexer.NextToken()
	if token.Type != NUMBER {
		return 0, gerr.Syntax("expected VARCHAR length, got %s", token.Value)
	}
	size, err := strconv.Atoi(token.Value)
	if err != nil || size <= 0 {
		return 0, gerr.Syntax("invalid VARCHAR length %s", token.Value)
	}
	if err := p.expect(lexer, RPAREN, ")"); err != nil {
		return 0, err
	}
	return size, nil
}

func (p *Parser) parseColumnConstraints(lexer *Lexer, col statements.ColumnDef) (statements.ColumnDef, error) {
	for {
		token := lexer.NextToken()
		switch token.Type {
		case PRIMARY:
			if err := p.expect(lexer, KEY, "KEY"); err != nil {
				return col, err
			}
			col.PrimaryKey = true
		case NOT:
			if err := p.expect(lexer, NULL, "NULL"); err != nil {
				return col, err
			}
			col.NotNull = true
		case UNIQUE:
			col.Unique = true
		default:
			lexer.pos = token.Position // put it back
			return col, nil
		}
	}
}

func (p *Parser) parseInsert(lexer *Lexer) (*statements.InsertStatement, error) {
	if err := p.expect(lexer, INSERT, "INSERT"); err != nil {
		return nil, err
	}
	if err := p.expect(lexer, INTO, "INTO"); err != nil {
		return nil, err
	}

	token := lexer.NextToken()
	if token.Type != IDENTIFIER {
		return nil, gerr.Syntax("expected table name, got %s", token.Value)
	}
	stmt := statements.NewInsertStatement(token.Value)

	token = lexer.NextToken()
	if token.Type == LPAREN {
		columns, err := p.parseColumnList(lexer)
		if err != nil {
			return nil, err
		}
		stmt.Columns = columns
		token = lexer.NextToken()
	}

	if token.Type != VALUES {
		return nil, gerr.Syntax("expected VALUES, got %s", token.Value)
	}

	for {
		if err := p.expect(lexer, LPAREN, "("); err != nil {
			return nil, err
		}
		values, err := p.parseValueList(lexer)
		if err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, values)

		token = lexer.NextToken()
		if token.Type == COMMA {
			continue
		}
		lexer.pos = token.Position
		return stmt, nil
	}
}

func (p *Parser) parseColumnList(lexer *Lexer) ([]string, error) {
	columns := make([]string, 0)
	for {
		token := lexer.NextToken()
		if token.Type != IDENTIFIER {
			return nil, gerr.Syntax("expected column name, got %s", token.Value)
		}
		columns = append(columns, token.Value)

		token = lexer.NextToken()
		if token.Type == COMMA {
			continue
		}
		if token.Type == RPAREN {
			return columns, nil
		}
		return nil, gerr.Syntax("expected ',' or ')', got %s", token.Value)
	}
}

func (p *Parser) parseValueList(lexer *Lexer) ([]types.Field, error) {
	values := make([]types.Field, 0)
	for {
		value, err := p.parseValue(lexer)
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		token := lexer.NextToken()
		if token.Type == COMMA {
			continue
		}
		if token.Type == RPAREN {
			return values, nil
		}
		return nil, gerr.Syntax("expected ',' or ')', got %s", token.Value)
	}
}

func (p *Parser) parseValue(lexer *Lexer) (types.Field, error) {
	token := lexer.NextToken()
	switch token.Type {
	case NUMBER:
		return parseNumber(token.Value)
	case STRING:
		return types.NewTextField(token.Value), nil
	case TRUE:
		return types.NewBoolField(true), nil
	case FALSE:
		return types.NewBoolField(false), nil
	case NULL:
		return types.Null, nil
	default:
		return nil, gerr.Syntax("expected a literal value, got %s", token.Value)
	}
}

func parseNumber(text string) (types.Field, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return types.NewIntField(i), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, gerr.Syntax("invalid number %s", text)
	}
	return types.NewFloatField(f), nil
}

func (p *Parser) parseSelect(lexer *Lexer) (*statements.SelectStatement, error) {
	if err := p.expect(lexer, SELECT, "SELECT"); err != nil {
		return nil, err
	}

	items, err := p.parseSelectList(lexer)
	if err != nil {
		return nil, err
	}

	if err := p.expect(lexer, FROM, "FROM"); err != nil {
		return nil, err
	}
	token := lexer.NextToken()
	if token.Type != IDENTIFIER {
		return nil, gerr.Syntax("expected table name, got %s", token.Value)
	}

	stmt := statements.NewSelectStatement(token.Value)
	stmt.Columns = items

	where, err := p.parseOptionalWhere(lexer)
	if err != nil {
		return nil, err
	}
	stmt.Where = where
	return stmt, nil
}

func (p *Parser) parseSelectList(lexer *Lexer) ([]statements.SelectItem, error) {
	items := make([]statements.SelectItem, 0)
	for {
		token := lexer.NextToken()
		switch token.Type {
		case STAR:
			items = append(items, statements.SelectItem{Star: true})
		case IDENTIFIER:
			items = append(items, statements.SelectItem{Name: token.Value})
		default:
			return nil, gerr.Syntax("expected column name or *, got %s", token.Value)
		}

		token = lexer.NextToken()
		if token.Type == COMMA {
			continue
		}
		lexer.pos = token.Position
		return items, nil
	}
}

func (p *Parser) parseDelete(lexer *Lexer) (*statements.DeleteStatement, error) {
	if err := p.expect(lexer, DELETE, "DELETE"); err != nil {
		return nil, err
	}
	if err := p.expect(lexer, FROM, "FROM"); err != nil {
		return nil, err
	}

	token := lexer.NextToken()
	if token.Type != IDENTIFIER {
		return nil, gerr.Syntax("expected table name, got %s", token.Value)
	}
	stmt := statements.NewDeleteStatement(token.Value)

	where, err := p.parseOptionalWhere(lexer)
	if err != nil {
		return nil, err
	}
	stmt.Where = where
	return stmt, nil
}

func (p *Parser) parseOptionalWhere(lexer *Lexer) (statements.Expression, error) {
	token := lexer.NextToken()
	if token.Type != WHERE {
		lexer.pos = token.Position
		return nil, nil
	}
	return p.parseOrExpression(lexer)
}

// parseOrExpression parses the WHERE grammar with standard
// precedence: OR binds weakest, then AND, then NOT.
func (p *Parser) parseOrExpression(lexer *Lexer) (statements.Expression, error) {
	left, err := p.parseAndExpression(lexer)
	if err != nil {
		return nil, err
	}

	for {
		token := lexer.NextToken()
		if token.Type != OR {
			lexer.pos = token.Position
			return left, nil
		}
		right, err := p.parseAndExpression(lexer)
		if err != nil {
			return nil, err
		}
		left = &statements.Or{Left: left, Right: right}
	}
}

func (p *Parser) parseAndExpression(lexer *Lexer) (statements.Expression, error) {
	left, err := p.parseNotExpression(lexer)
	if err != nil {
		return nil, err
	}

	for {
		token := lexer.NextToken()
		if token.Type != AND {
			lexer.pos = token.Position
			return left, nil
		}
		right, err := p.parseNotExpression(lexer)
		if err != nil {
			return nil, err
		}
		left = &statements.And{Left: left, Right: right}
	}
}

func (p *Parser) parseNotExpression(lexer *Lexer) (statements.Expression, error) {
	token := lexer.NextToken()
	if token.Type == NOT {
		inner, err := p.parseNotExpression(lexer)
		if err != nil {
			return nil, err
		}
		return &statements.Not{Expr: inner}, nil
	}

	lexer.pos = token.Position
	return p.parsePrimaryExpression(lexer)
}

func (p *Parser) parsePrimaryExpression(lexer *Lexer) (statements.Expression, error) {
	token := lexer.NextToken()
	if token.Type == LPAREN {
		inner, err := p.parseOrExpression(lexer)
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer, RPAREN, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	lexer.pos = token.Position

	left, err := p.parseOperand(lexer)
	if err != nil {
		return nil, err
	}

	token = lexer.NextToken()
	if token.Type == IS {
		return p.parseIsNull(lexer, left)
	}
	if token.Type != OPERATOR {
		return nil, gerr.Syntax("expected comparison operator, got %s", token.Value)
	}
	op, err := comparisonOp(token.Value)
	if err != nil {
		return nil, err
	}

	right, err := p.parseOperand(lexer)
	if err != nil {
		return nil, err
	}
	return &statements.Comparison{Left: left, Op: op, Right: right}, nil
}

func (p *Parser) parseIsNull(lexer *Lexer, operand statements.Expression) (statements.Expression, error) {
	negate := false
	token := lexer.NextToken()
	if token.Type == NOT {
		negate = true
		token = lexer.NextToken()
	}
	if token.Type != NULL {
		return nil, gerr.Syntax("expected NULL after IS, got %s", token.Value)
	}
	return &statements.IsNull{Expr: operand, Negate: negate}, nil
}

func (p *Parser) parseOperand(lexer *Lexer) (statements.Expression, error) {
	token := lexer.NextToken()
	switch token.Type {
	case IDENTIFIER:
		return &statements.ColumnRef{Name: token.Value}, nil
	case NUMBER, STRING, TRUE, FALSE, NULL:
		lexer.pos = token.Position
		value, err := p.parseValue(lexer)
		if err != nil {
			return nil, err
		}
		return &statements.Literal{Value: value}, nil
	default:
		return nil, gerr.Syntax("expected column or literal, got %s", token.Value)
	}
}

func comparisonOp(op string) (primitives.Predicate, error) {
	switch op {
	case "=", "==":
		return primitives.Equals, nil
	case "!=", "<>":
		return primitives.NotEqual, nil
	case "<":
		return primitives.LessThan, nil
	case "<=":
		return primitives.LessThanOrEqual, nil
	case ">":
		return primitives.GreaterThan, nil
	case ">=":
		return primitives.GreaterThanOrEqual, nil
	default:
		return 0, gerr.Syntax("unknown operator %s", op)
	}
}

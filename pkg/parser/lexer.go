package parser

import (
	"strings"
	"unicode"
)

// Lexer splits a statement into tokens. Keywords are matched case
// insensitively; identifier and string casing is preserved.
type Lexer struct {
	input  string
	pos    int
	length int
}

func NewLexer(input string) *Lexer {
	input = strings.TrimSpace(input)
	return &Lexer{
		input:  input,
		pos:    0,
		length: len(input),
	}
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= l.length {
		return createToken(EOF, "", l.pos)
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == ',':
		l.pos++
		return createToken(COMMA, ",", start)
	case ch == ';':
		l.pos++
		return createToken(SEMICOLON, ";", start)
	case ch == '(':
		l.pos++
		return createToken(LPAREN, "(", start)
	case ch == ')':
		l.pos++
		return createToken(RPAREN, ")", start)
	case ch == '*':
		l.pos++
		return createToken(STAR, "*", start)
	case ch == '=' || ch == '<' || ch == '>' || ch == '!':
		return l.readOperator(start)
	case ch == '\'' || ch == '"':
		return l.readString(start)
	case unicode.IsDigit(rune(ch)) || (ch == '-' && l.digitFollows()):
		return l.readNumber(start)
	case unicode.IsLetter(rune(ch)) || ch == '_':
		return l.readIdentifier(start)
	default:
		l.pos++
		return createToken(INVALID, string(ch), start)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < l.length && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *Lexer) digitFollows() bool {
	return l.pos+1 < l.length && unicode.IsDigit(rune(l.input[l.pos+1]))
}

func (l *Lexer) readOperator(start int) Token {
	for l.pos < l.length && strings.ContainsRune("=<>!", rune(l.input[l.pos])) {
		l.pos++
	}
	return createToken(OPERATOR, l.input[start:l.pos], start)
}

func (l *Lexer) readString(start int) Token {
	quote := l.input[l.pos]
	l.pos++

	valueStart := l.pos
	for l.pos < l.length && l.input[l.pos] != quote {
		l.pos++
	}
	if l.pos >= l.length {
		return createToken(INVALID, l.input[start:], start)
	}

	value := l.input[valueStart:l.pos]
	l.pos++ // closing quote
	return createToken(STRING, value, start)
}

func (l *Lexer) readNumber(start int) Token {
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < l.length && unicode.IsDigit(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos < l.length && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < l.length && unicode.IsDigit(rune(l.input[l.pos])) {
			l.pos++
		}
	}
	return createToken(NUMBER, l.input[start:l.pos], start)
}

func (l *Lexer) readIdentifier(start int) Token {
	for l.pos < l.length {
		ch := l.input[l.pos]
		if unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) || ch == '_' {
			l.pos++
			continue
		}
		break
	}

	value := l.input[start:l.pos]
	switch strings.ToUpper(value) {
	case "CREATE":
		return createToken(CREATE, value, start)
	case "TABLE":
		return createToken(TABLE, value, start)
	case "PRIMARY":
		return createToken(PRIMARY, value, start)
	case "KEY":
		return createToken(KEY, value, start)
	case "UNIQUE":
		return createToken(UNIQUE, value, start)
	case "NOT":
		return createToken(NOT, value, start)
	case "NULL":
		return createToken(NULL, value, start)

	case "INSERT":
		return createToken(INSERT, value, start)
	case "INTO":
		return createToken(INTO, value, start)
	case "VALUES":
		return createToken(VALUES, value, start)
	case "DELETE":
		return createToken(DELETE, value, start)

	case "SELECT":
		return createToken(SELECT, value, start)
	case "FROM":
		return createToken(FROM, value, start)
	case "WHERE":
		return createToken(WHERE, value, start)
	case "AND":
		return createToken(AND, value, start)
	case "OR":
		return createToken(OR, value, start)
	case "IS":
		return createToken(IS, value, start)

	case "TRUE":
		return createToken(TRUE, value, start)
	case "FALSE":
		return createToken(FALSE, value, start)

	case "INT", "INTEGER":
		return createToken(INT, value, start)
	case "BIGINT":
		return createToken(BIGINT, value, start)
	case "FLOAT", "REAL":
		return createToken(FLOAT, value, start)
	case "DOUBLE":
		return createToken(DOUBLE, value, start)
	case "TEXT":
		return createToken(TEXT, value, start)
	case "BOOLEAN", "BOOL":
		return createToken(BOOLEAN, value, start)
	case "VARCHAR":
		return createToken(VARCHAR, value, start)

	default:
		return createToken(IDENTIFIER, value, start)
	}
}

func createToken(t TokenType, value string, start int) Token {
	return Token{
		Type:     t,
		Value:    value,
		Position: start,
	}
}

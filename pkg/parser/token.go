package parser

type TokenType int

const (
	CREATE TokenType = iota
	TABLE
	PRIMARY
	KEY
	UNIQUE
	NOT
	NULL

	INSERT
	INTO
	VALUES
	DELETE

	SELECT
	FROM
	WHERE
	AND
	OR
	IS

	TRUE
	FALSE

	INT
	BIGINT
	FLOAT
	DOUBLE
	TEXT
	BOOLEAN
	VARCHAR

	IDENTIFIER
	NUMBER
	STRING
	OPERATOR

	COMMA
	SEMICOLON
	LPAREN
	RPAREN
	STAR

	EOF
	INVALID
)

type Token struct {
	Type     TokenType
	Value    string
	Position int
}

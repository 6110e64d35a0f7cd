// Package statements defines the closed set of statement variants the
// storage engine consumes and the result variants it produces. The
// parser builds these; the engine never sees SQL text.
package statements

type StatementType int

const (
	Select StatementType = iota
	Insert
	Delete
	CreateTable
)

func (st StatementType) String() string {
	switch st {
	case Select:
		return "SELECT"
	case Insert:
		return "INSERT"
	case Delete:
		return "DELETE"
	case CreateTable:
		return "CREATE TABLE"
	default:
		return "UNKNOWN"
	}
}

// Statement is the interface every statement variant implements.
type Statement interface {
	// GetType returns the variant of the statement.
	GetType() StatementType
	// String returns a SQL-like rendering for logs and errors.
	String() string
}

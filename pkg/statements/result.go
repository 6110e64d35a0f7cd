package statements

import "github.com/gopu-inc/gsql/pkg/tuple"

// ResultKind discriminates the QueryResult variants.
type ResultKind int

const (
	SelectResult ResultKind = iota
	InsertResult
	CreateResult
	DeleteResult
	EmptyResult
)

// QueryResult is what the engine returns for a successful statement.
// Only the fields of the active variant are populated.
type QueryResult struct {
	Kind         ResultKind
	Columns      []string     // SelectResult
	Rows         []*tuple.Row // SelectResult
	RowsAffected int          // InsertResult, DeleteResult
	Table        string       // CreateResult
}

func NewSelectResult(columns []string, rows []*tuple.Row) *QueryResult {
	return &QueryResult{Kind: SelectResult, Columns: columns, Rows: rows}
}

func NewInsertResult(rowsAffected int) *QueryResult {
	return &QueryResult{Kind: InsertResult, RowsAffected: rowsAffected}
}

func NewCreateResult(table string) *QueryResult {
	return &QueryResult{Kind: CreateResult, Table: table}
}

func NewDeleteResult(rowsAffected int) *QueryResult {
	return &QueryResult{Kind: DeleteResult, RowsAffected: rowsAffected}
}

func NewEmptyResult() *QueryResult {
	return &QueryResult{Kind: EmptyResult}
}

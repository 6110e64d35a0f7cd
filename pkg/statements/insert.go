package statements

import (
	"fmt"
	"strings"

	"github.com/gopu-inc/gsql/pkg/types"
)

// InsertStatement is INSERT INTO with values already evaluated to
// literal fields by the parser. Columns may be empty, meaning all
// columns in schema order.
type InsertStatement struct {
	TableName string
	Columns   []string
	Rows      [][]types.Field
}

func NewInsertStatement(tableName string) *InsertStatement {
	return &InsertStatement{TableName: tableName}
}

func (s *InsertStatement) GetType() StatementType {
	return Insert
}

func (s *InsertStatement) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("INSERT INTO %s", s.TableName))
	if len(s.Columns) > 0 {
		sb.WriteString(" (" + strings.Join(s.Columns, ", ") + ")")
	}
	sb.WriteString(" VALUES ")
	for i, row := range s.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		parts := make([]string, len(row))
		for j, v := range row {
			parts[j] = v.String()
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	return sb.String()
}

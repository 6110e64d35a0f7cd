package statements

import (
	"fmt"
	"strings"
)

// SelectItem is one projected column; Star selects all columns.
type SelectItem struct {
	Star bool
	Name string
}

func (si SelectItem) String() string {
	if si.Star {
		return "*"
	}
	return si.Name
}

// SelectStatement is a single-table SELECT with an optional WHERE
// clause.
type SelectStatement struct {
	Columns   []SelectItem
	TableName string
	Where     Expression // nil for no filter
}

func NewSelectStatement(tableName string) *SelectStatement {
	return &SelectStatement{TableName: tableName}
}

func (s *SelectStatement) GetType() StatementType {
	return Select
}

func (s *SelectStatement) String() string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		parts[i] = c.String()
	}
	out := fmt.Sprintf("SELECT %s FROM %s", strings.Join(parts, ", "), s.TableName)
	if s.Where != nil {
		out += " WHERE " + s.Where.String()
	}
	return out
}

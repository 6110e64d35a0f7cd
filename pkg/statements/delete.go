package statements

import "fmt"

// DeleteStatement is a single-table DELETE with an optional WHERE
// clause; a nil Where deletes every row.
type DeleteStatement struct {
	TableName string
	Where     Expression
}

func NewDeleteStatement(tableName string) *DeleteStatement {
	return &DeleteStatement{TableName: tableName}
}

func (s *DeleteStatement) GetType() StatementType {
	return Delete
}

func (s *DeleteStatement) String() string {
	out := fmt.Sprintf("DELETE FROM %s", s.TableName)
	if s.Where != nil {
		out += " WHERE " + s.Where.String()
	}
	return out
}

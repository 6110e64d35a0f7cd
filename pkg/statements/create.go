package statements

import (
	"fmt"
	"strings"

	"github.com/gopu-inc/gsql/pkg/types"
)

// ColumnDef is one column of a CREATE TABLE statement: name, declared
// type (with the VARCHAR length when applicable), and constraints.
type ColumnDef struct {
	Name       string
	Type       types.Type
	MaxSize    int // VARCHAR(n) cap; 0 otherwise
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

// CreateStatement is CREATE TABLE with ordered column definitions.
type CreateStatement struct {
	TableName string
	Columns   []ColumnDef
}

func NewCreateStatement(tableName string) *CreateStatement {
	return &CreateStatement{TableName: tableName}
}

func (s *CreateStatement) GetType() StatementType {
	return CreateTable
}

func (s *CreateStatement) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (", s.TableName))
	for i, col := range s.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col.Name)
		sb.WriteByte(' ')
		if col.Type == types.VarcharType {
			sb.WriteString(fmt.Sprintf("VARCHAR(%d)", col.MaxSize))
		} else {
			sb.WriteString(col.Type.String())
		}
		if col.PrimaryKey {
			sb.WriteString(" PRIMARY KEY")
		}
		if col.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if col.Unique {
			sb.WriteString(" UNIQUE")
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

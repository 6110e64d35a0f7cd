package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// TableMetadata describes one table: its name, ordered column
// definitions, current page count, and primary-key column if any.
// Metadata registration and data-file creation are one logical unit; a
// failed file creation leaves no metadata behind.
type TableMetadata struct {
	Name       string
	Schema     *tuple.Schema
	PageCount  primitives.PageNumber
	PrimaryKey int // column index, -1 when no primary key is declared
}

// catalogColumn is the persisted form of a column definition.
type catalogColumn struct {
	Name       string     `json:"name"`
	Type       types.Type `json:"type"`
	MaxSize    int        `json:"max_size,omitempty"`
	PrimaryKey bool       `json:"primary_key,omitempty"`
	NotNull    bool       `json:"not_null,omitempty"`
	Unique     bool       `json:"unique,omitempty"`
}

type catalogTable struct {
	Name    string          `json:"name"`
	Columns []catalogColumn `json:"columns"`
}

type catalogFile struct {
	Tables []catalogTable `json:"tables"`
}

// saveCatalog persists every table's metadata to the engine file
// (gsql.db) via an atomic rename, so a crash mid-write never leaves a
// torn catalog.
func (e *Engine) saveCatalog() error {
	cat := catalogFile{}
	for _, name := range e.tableNames() {
		t := e.tables[name]
		ct := catalogTable{Name: t.meta.Name}
		for _, col := range t.meta.Schema.Columns {
			ct.Columns = append(ct.Columns, catalogColumn{
				Name:       col.Name,
				Type:       col.Type,
				MaxSize:    col.MaxSize,
				PrimaryKey: col.PrimaryKey,
				NotNull:    col.NotNull,
				Unique:     col.Unique,
			})
		}
		cat.Tables = append(cat.Tables, ct)
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	tmp := e.dbPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return gerr.Io(err, "failed to write catalog %s", tmp)
	}
	if err := os.Rename(tmp, e.dbPath); err != nil {
		return gerr.Io(err, "failed to replace catalog %s", e.dbPath)
	}
	return nil
}

// loadCatalog reads table metadata from the engine file. A missing
// file means a fresh database.
func loadCatalog(dbPath string) ([]*TableMetadata, error) {
	data, err := os.ReadFile(dbPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, gerr.Io(err, "failed to read catalog %s", dbPath)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var cat catalogFile
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("corrupt catalog %s: %w", dbPath, err)
	}

	metas := make([]*TableMetadata, 0, len(cat.Tables))
	for _, ct := range cat.Tables {
		columns := make([]tuple.Column, 0, len(ct.Columns))
		for _, c := range ct.Columns {
			columns = append(columns, tuple.Column{
				Name:       c.Name,
				Type:       c.Type,
				MaxSize:    c.MaxSize,
				PrimaryKey: c.PrimaryKey,
				NotNull:    c.NotNull,
				Unique:     c.Unique,
			})
		}
		schema, err := tuple.NewSchema(columns)
		if err != nil {
			return nil, fmt.Errorf("corrupt catalog entry for table %s: %w", ct.Name, err)
		}
		meta := &TableMetadata{Name: ct.Name, Schema: schema, PrimaryKey: -1}
		if pk, ok := schema.PrimaryKey(); ok {
			meta.PrimaryKey = pk
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

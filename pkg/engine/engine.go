// Package engine implements the storage engine: it owns the catalog
// and the write-ahead log, and orchestrates pages, the buffer pool,
// and the per-table B+Tree index to execute statements.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/index/btree"
	"github.com/gopu-inc/gsql/pkg/log/wal"
	"github.com/gopu-inc/gsql/pkg/logging"
	"github.com/gopu-inc/gsql/pkg/memory"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/storage/page"
	"github.com/gopu-inc/gsql/pkg/tuple"
)

const walBufferSize = 64 * 1024

// Config controls where the engine keeps its files and how large each
// table's buffer pool is.
type Config struct {
	DataDir      string
	DBFile       string // catalog file name inside DataDir; default gsql.db
	PoolCapacity int    // pages resident per pool; default memory.DefaultCapacity
}

// table is the runtime state of one registered table: its metadata,
// the buffer pool over its data file, and its primary-key index.
type table struct {
	meta  *TableMetadata
	pool  *memory.BufferPool
	index *btree.BTree // nil when no primary key is declared
}

// Engine is a single-node storage engine. Access is serialized: one
// statement runs at a time, callers needing concurrency queue outside.
type Engine struct {
	dataDir  string
	dbPath   string
	capacity int
	wal      *wal.WAL
	tables   map[string]*table
	mutex    sync.Mutex
}

// Open loads the catalog, opens every registered table, replays the
// write-ahead log, and only then returns an engine ready for
// statements.
func Open(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.DBFile == "" {
		cfg.DBFile = "gsql.db"
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, gerr.Io(err, "failed to create data directory %s", cfg.DataDir)
	}

	w, err := wal.Open(string(primitives.WALFile(cfg.DataDir)), walBufferSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dataDir:  cfg.DataDir,
		dbPath:   filepath.Join(cfg.DataDir, cfg.DBFile),
		capacity: cfg.PoolCapacity,
		wal:      w,
		tables:   make(map[string]*table),
	}

	metas, err := loadCatalog(e.dbPath)
	if err != nil {
		w.Close()
		return nil, err
	}
	for _, meta := range metas {
		if err := e.openTable(meta); err != nil {
			e.closeTables()
			w.Close()
			return nil, fmt.Errorf("failed to open table %s: %w", meta.Name, err)
		}
	}

	if err := e.recover(); err != nil {
		e.closeTables()
		w.Close()
		return nil, fmt.Errorf("recovery failed: %w", err)
	}

	logging.Info("engine opened", "dir", cfg.DataDir, "tables", len(e.tables))
	return e, nil
}

// Execute runs one statement and returns its result, or an error from
// the closed taxonomy. Errors never terminate the engine.
func (e *Engine) Execute(stmt statements.Statement) (*statements.QueryResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	switch s := stmt.(type) {
	case *statements.CreateStatement:
		return e.createTable(s)
	case *statements.InsertStatement:
		return e.insert(s)
	case *statements.SelectStatement:
		return e.selectRows(s)
	case *statements.DeleteStatement:
		return e.deleteRows(s)
	default:
		return nil, gerr.NotImplemented(fmt.Sprintf("statement %T", stmt))
	}
}

// createTable registers a table and creates its files. Metadata and
// file creation are atomic from the caller's view: any failure
// unwinds the files and leaves no catalog entry.
func (e *Engine) createTable(stmt *statements.CreateStatement) (*statements.QueryResult, error) {
	if _, exists := e.tables[stmt.TableName]; exists {
		return nil, gerr.TableExists(stmt.TableName)
	}

	columns := make([]tuple.Column, 0, len(stmt.Columns))
	for _, col := range stmt.Columns {
		columns = append(columns, tuple.Column{
			Name:       col.Name,
			Type:       col.Type,
			MaxSize:    col.MaxSize,
			PrimaryKey: col.PrimaryKey,
			NotNull:    col.NotNull || col.PrimaryKey,
			Unique:     col.Unique,
		})
	}
	schema, err := tuple.NewSchema(columns)
	if err != nil {
		return nil, gerr.Syntax("invalid table definition: %v", err)
	}

	meta := &TableMetadata{Name: stmt.TableName, Schema: schema, PrimaryKey: -1}
	if pk, ok := schema.PrimaryKey(); ok {
		meta.PrimaryKey = pk
	}

	if err := e.openTable(meta); err != nil {
		return nil, err
	}
	if err := e.saveCatalog(); err != nil {
		e.dropTableFiles(stmt.TableName)
		return nil, err
	}

	logging.WithTable(stmt.TableName).Info("table created", "columns", schema.NumColumns())
	return statements.NewCreateResult(stmt.TableName), nil
}

// openTable opens (creating if absent) a table's data file and, when a
// primary key is declared, its index file. On any failure every file
// opened so far is closed and created files are removed.
func (e *Engine) openTable(meta *TableMetadata) error {
	dataPath := primitives.TableFile(e.dataDir, meta.Name)
	dataFile, err := page.OpenPageFile(dataPath)
	if err != nil {
		return err
	}

	t := &table{
		meta: meta,
		pool: memory.NewBufferPool(dataFile, e.capacity, e.wal),
	}

	if meta.PageCount, err = t.pool.NumPages(); err != nil {
		t.pool.Close()
		return err
	}

	if meta.PrimaryKey >= 0 {
		idxPath := primitives.IndexFile(e.dataDir, meta.Name)
		idxFile, err := page.OpenPageFile(idxPath)
		if err != nil {
			t.pool.Close()
			return err
		}
		idx, err := btree.Open(memory.NewBufferPool(idxFile, e.capacity, nil))
		if err != nil {
			idxFile.Close()
			t.pool.Close()
			return err
		}
		t.index = idx
	}

	e.tables[meta.Name] = t
	return nil
}

// dropTableFiles unregisters a table and removes its on-disk files.
// Used to unwind a half-created table.
func (e *Engine) dropTableFiles(name string) {
	t, exists := e.tables[name]
	if !exists {
		return
	}
	delete(e.tables, name)

	t.pool.Close()
	if t.index != nil {
		t.index.Close()
	}
	os.Remove(string(primitives.TableFile(e.dataDir, name)))
	os.Remove(string(primitives.IndexFile(e.dataDir, name)))
}

// lookupTable returns the runtime state for name.
func (e *Engine) lookupTable(name string) (*table, error) {
	t, exists := e.tables[name]
	if !exists {
		return nil, gerr.TableNotFound(name)
	}
	return t, nil
}

// tableNames returns registered table names in sorted order.
func (e *Engine) tableNames() []string {
	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables returns the names of all registered tables.
func (e *Engine) Tables() []string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.tableNames()
}

func (e *Engine) closeTables() {
	for _, t := range e.tables {
		t.pool.Close()
		if t.index != nil {
			t.index.Close()
		}
	}
}

// Close flushes every table, persists the catalog, and closes the WAL.
func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	var firstErr error
	for _, name := range e.tableNames() {
		t := e.tables[name]
		if err := t.pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if t.index != nil {
			if err := t.index.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := e.saveCatalog(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.wal.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil && !errors.Is(firstErr, os.ErrClosed) {
		return firstErr
	}
	return nil
}

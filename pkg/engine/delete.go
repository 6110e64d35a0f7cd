package engine

import (
	"errors"

	"github.com/gopu-inc/gsql/pkg/index/btree"
	"github.com/gopu-inc/gsql/pkg/logging"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/storage/heap"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// deleteRows removes every row matching the WHERE clause. Matching
// rows are collected first so the scan never races its own slot
// clears, then each removal is logged before the slot is touched.
func (e *Engine) deleteRows(stmt *statements.DeleteStatement) (*statements.QueryResult, error) {
	t, err := e.lookupTable(stmt.TableName)
	if err != nil {
		return nil, err
	}
	if err := validateWhere(t.meta.Schema, stmt.Where); err != nil {
		return nil, err
	}

	var victims []*tuple.Row
	err = e.scanTable(t, func(row *tuple.Row) error {
		ok, err := e.matches(t.meta.Schema, stmt.Where, row)
		if err != nil {
			return err
		}
		if ok {
			victims = append(victims, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, row := range victims {
		if err := e.deleteRow(t, row); err != nil {
			return nil, err
		}
	}

	if err := e.wal.Flush(); err != nil {
		return nil, err
	}

	logging.WithTable(stmt.TableName).Debug("rows deleted", "count", len(victims))
	return statements.NewDeleteResult(len(victims)), nil
}

// deleteRow logs the removal, clears the heap slot, and drops the
// primary key from the index.
func (e *Engine) deleteRow(t *table, row *tuple.Row) error {
	rid := *row.RecordID

	payload, err := tuple.Encode(row)
	if err != nil {
		return err
	}
	lsn, err := e.wal.LogDelete(t.meta.Name, rid, payload)
	if err != nil {
		return err
	}

	p, err := t.pool.Get(rid.PageNo)
	if err != nil {
		return err
	}
	if err := heap.NewHeapPage(p).DeleteRow(rid.Slot); err != nil {
		t.pool.Release(p)
		return err
	}
	t.pool.Release(p)
	if err := t.pool.MarkDirty(rid.PageNo, lsn); err != nil {
		return err
	}

	if t.index != nil {
		key, err := row.GetField(t.meta.PrimaryKey)
		if err != nil {
			return err
		}
		if key.Kind() != types.NullKind {
			if err := t.index.Delete(key); err != nil && !errors.Is(err, btree.ErrKeyNotFound) {
				return err
			}
		}
	}
	return nil
}

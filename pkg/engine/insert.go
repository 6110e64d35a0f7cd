package engine

import (
	"errors"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/logging"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/storage/heap"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// insert validates each value row against the schema, places it in the
// heap file, logs it, and indexes its primary key. The log is forced
// once per statement, before the result is returned.
func (e *Engine) insert(stmt *statements.InsertStatement) (*statements.QueryResult, error) {
	t, err := e.lookupTable(stmt.TableName)
	if err != nil {
		return nil, err
	}

	positions, err := resolveColumns(t.meta.Schema, stmt.Columns)
	if err != nil {
		return nil, err
	}

	inserted := 0
	for _, values := range stmt.Rows {
		row, err := buildRow(t.meta.Schema, positions, values)
		if err != nil {
			return nil, err
		}
		if err := e.insertRow(t, row); err != nil {
			return nil, err
		}
		inserted++
	}

	if err := e.wal.Flush(); err != nil {
		return nil, err
	}

	logging.WithTable(stmt.TableName).Debug("rows inserted", "count", inserted)
	return statements.NewInsertResult(inserted), nil
}

// resolveColumns maps an INSERT column list to schema positions. An
// empty list means all columns in schema order.
func resolveColumns(schema *tuple.Schema, columns []string) ([]int, error) {
	if len(columns) == 0 {
		positions := make([]int, schema.NumColumns())
		for i := range positions {
			positions[i] = i
		}
		return positions, nil
	}

	positions := make([]int, 0, len(columns))
	seen := make(map[int]bool)
	for _, name := range columns {
		idx, err := schema.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		if seen[idx] {
			return nil, gerr.Syntax("column %s listed twice", name)
		}
		seen[idx] = true
		positions = append(positions, idx)
	}
	return positions, nil
}

// buildRow assembles and validates one row: value count, type match,
// numeric widening, VARCHAR length cap, and NOT NULL.
func buildRow(schema *tuple.Schema, positions []int, values []types.Field) (*tuple.Row, error) {
	if len(values) != len(positions) {
		return nil, gerr.Syntax("expected %d values, got %d", len(positions), len(values))
	}

	row := tuple.NewRow(schema)
	for i, value := range values {
		idx := positions[i]
		col := schema.Columns[idx]

		value = widenNumeric(value, col.Type)
		if col.Type == types.VarcharType && value.Kind() == types.TextKind {
			text := value.(*types.TextField)
			if len(text.Value) > col.MaxSize {
				return nil, gerr.TypeMismatch("value for column %s exceeds VARCHAR(%d)",
					col.Name, col.MaxSize)
			}
		}
		if err := row.SetField(idx, value); err != nil {
			return nil, err
		}
	}

	for i, col := range schema.Columns {
		field, _ := row.GetField(i)
		if col.NotNull && field.Kind() == types.NullKind {
			return nil, gerr.TypeMismatch("column %s is NOT NULL", col.Name)
		}
	}
	return row, nil
}

// widenNumeric converts an integer literal to a float field when the
// target column is FLOAT or DOUBLE. Parsers cannot know the column
// type, so "1" arrives as an integer even for float columns.
func widenNumeric(value types.Field, target types.Type) types.Field {
	if target.Kind() != types.Float64Kind {
		return value
	}
	if iv, ok := value.(*types.IntField); ok {
		return types.NewFloatField(float64(iv.Value))
	}
	return value
}

// insertRow places one validated row. Constraints are checked before
// anything is placed or logged, so a rejected row leaves neither a
// heap slot nor a log record behind. The page is mutated while pinned,
// the change is logged, and only then is the page marked dirty with
// the record's LSN so the pool's flush barrier holds.
func (e *Engine) insertRow(t *table, row *tuple.Row) error {
	if err := e.checkUnique(t, row); err != nil {
		return err
	}

	var key types.Field
	if t.index != nil {
		var err error
		if key, err = row.GetField(t.meta.PrimaryKey); err != nil {
			return err
		}
		_, found, err := t.index.Lookup(key)
		if err != nil {
			return err
		}
		if found {
			col := t.meta.Schema.Columns[t.meta.PrimaryKey]
			return gerr.TypeMismatch("duplicate primary key %s for column %s", key, col.Name)
		}
	}

	payload, err := tuple.Encode(row)
	if err != nil {
		return err
	}

	pageNo, slot, err := e.placeRow(t, payload)
	if err != nil {
		return err
	}

	rid := tuple.RecordID{PageNo: pageNo, Slot: slot}
	lsn, err := e.wal.LogInsert(t.meta.Name, rid, payload)
	if err != nil {
		return err
	}
	if err := t.pool.MarkDirty(pageNo, lsn); err != nil {
		return err
	}
	row.RecordID = &rid

	// cannot collide: statements are serialized and the key was just
	// probed
	if t.index != nil {
		if err := t.index.Insert(key, rid); err != nil {
			return err
		}
	}
	return nil
}

// placeRow finds a page with room for the encoded row, allocating a
// fresh page when every existing one is full, and writes the row in
// while the page is pinned.
func (e *Engine) placeRow(t *table, payload []byte) (primitives.PageNumber, primitives.SlotID, error) {
	for pageNo := primitives.PageNumber(0); pageNo < t.meta.PageCount; pageNo++ {
		slot, err := e.tryPage(t, pageNo, payload)
		if err == nil {
			return pageNo, slot, nil
		}
		if !errors.Is(err, heap.ErrPageFull) {
			return 0, 0, err
		}
	}

	pageNo, err := t.pool.Allocate()
	if err != nil {
		return 0, 0, err
	}
	t.meta.PageCount = pageNo + 1

	slot, err := e.tryPage(t, pageNo, payload)
	if err != nil {
		return 0, 0, err
	}
	return pageNo, slot, nil
}

func (e *Engine) tryPage(t *table, pageNo primitives.PageNumber, payload []byte) (primitives.SlotID, error) {
	p, err := t.pool.Get(pageNo)
	if err != nil {
		return 0, err
	}
	defer t.pool.Release(p)

	return heap.NewHeapPage(p).InsertRow(payload)
}

// checkUnique enforces UNIQUE on non-primary-key columns with a
// sequential scan. The primary key is enforced by the index instead.
func (e *Engine) checkUnique(t *table, row *tuple.Row) error {
	for i, col := range t.meta.Schema.Columns {
		if !col.Unique || col.PrimaryKey {
			continue
		}
		candidate, _ := row.GetField(i)
		if candidate.Kind() == types.NullKind {
			continue
		}

		conflict := false
		err := e.scanTable(t, func(existing *tuple.Row) error {
			field, err := existing.GetField(i)
			if err != nil {
				return err
			}
			if field.Kind() != types.NullKind && field.Equals(candidate) {
				conflict = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if conflict {
			return gerr.TypeMismatch("duplicate value %s for unique column %s", candidate, col.Name)
		}
	}
	return nil
}

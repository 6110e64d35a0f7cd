package engine

import (
	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/storage/heap"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// selectRows executes a single-table SELECT. A WHERE clause of the
// form pk = literal is answered with one index lookup; everything
// else is a sequential scan with the filter applied per row.
func (e *Engine) selectRows(stmt *statements.SelectStatement) (*statements.QueryResult, error) {
	t, err := e.lookupTable(stmt.TableName)
	if err != nil {
		return nil, err
	}

	projection, names, err := resolveProjection(t.meta.Schema, stmt.Columns)
	if err != nil {
		return nil, err
	}
	if err := validateWhere(t.meta.Schema, stmt.Where); err != nil {
		return nil, err
	}

	var matched []*tuple.Row
	collect := func(row *tuple.Row) error {
		ok, err := e.matches(t.meta.Schema, stmt.Where, row)
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, row)
		}
		return nil
	}

	if key, ok := e.pointLookupKey(t, stmt.Where); ok {
		row, found, err := e.fetchByKey(t, key)
		if err != nil {
			return nil, err
		}
		if found {
			if err := collect(row); err != nil {
				return nil, err
			}
		}
	} else if err := e.scanTable(t, collect); err != nil {
		return nil, err
	}

	rows := make([]*tuple.Row, 0, len(matched))
	for _, row := range matched {
		projected, err := projectRow(row, projection, names)
		if err != nil {
			return nil, err
		}
		rows = append(rows, projected)
	}
	return statements.NewSelectResult(names, rows), nil
}

// resolveProjection maps select items to schema positions and output
// column names. A star item expands to every column in order.
func resolveProjection(schema *tuple.Schema, items []statements.SelectItem) ([]int, []string, error) {
	var positions []int
	var names []string
	for _, item := range items {
		if item.Star {
			for i, name := range schema.ColumnNames() {
				positions = append(positions, i)
				names = append(names, name)
			}
			continue
		}
		idx, err := schema.ColumnIndex(item.Name)
		if err != nil {
			return nil, nil, err
		}
		positions = append(positions, idx)
		names = append(names, item.Name)
	}
	if len(positions) == 0 {
		return nil, nil, gerr.Syntax("empty select list")
	}
	return positions, names, nil
}

// projectRow builds an output row holding only the projected columns.
func projectRow(row *tuple.Row, positions []int, names []string) (*tuple.Row, error) {
	columns := make([]tuple.Column, len(positions))
	for i, pos := range positions {
		columns[i] = row.Schema.Columns[pos]
		columns[i].Name = names[i]
		columns[i].PrimaryKey = false
	}
	schema, err := tuple.NewSchema(columns)
	if err != nil {
		return nil, err
	}

	out := tuple.NewRow(schema)
	for i, pos := range positions {
		field, err := row.GetField(pos)
		if err != nil {
			return nil, err
		}
		if err := out.SetField(i, field); err != nil {
			return nil, err
		}
	}
	out.RecordID = row.RecordID
	return out, nil
}

// pointLookupKey recognizes WHERE pk = literal (either operand order)
// on an indexed table and returns the key to look up.
func (e *Engine) pointLookupKey(t *table, where statements.Expression) (types.Field, bool) {
	if t.index == nil || where == nil {
		return nil, false
	}
	cmp, ok := where.(*statements.Comparison)
	if !ok || cmp.Op != primitives.Equals {
		return nil, false
	}

	col, colOK := cmp.Left.(*statements.ColumnRef)
	lit, litOK := cmp.Right.(*statements.Literal)
	if !colOK || !litOK {
		col, colOK = cmp.Right.(*statements.ColumnRef)
		lit, litOK = cmp.Left.(*statements.Literal)
	}
	if !colOK || !litOK {
		return nil, false
	}

	idx, err := t.meta.Schema.ColumnIndex(col.Name)
	if err != nil || idx != t.meta.PrimaryKey {
		return nil, false
	}
	if lit.Value.Kind() != t.meta.Schema.Columns[idx].Type.Kind() {
		return nil, false
	}
	return lit.Value, true
}

// fetchByKey reads the single row the index maps the key to.
func (e *Engine) fetchByKey(t *table, key types.Field) (*tuple.Row, bool, error) {
	rid, found, err := t.index.Lookup(key)
	if err != nil || !found {
		return nil, false, err
	}

	p, err := t.pool.Get(rid.PageNo)
	if err != nil {
		return nil, false, err
	}
	defer t.pool.Release(p)

	data, occupied := heap.NewHeapPage(p).RowAt(rid.Slot)
	if !occupied {
		return nil, false, gerr.Other("index entry %s points at an empty slot", rid.String())
	}

	row, err := tuple.Decode(t.meta.Schema, data)
	if err != nil {
		return nil, false, err
	}
	row.RecordID = &rid
	return row, true, nil
}

// scanTable visits every stored row in page then slot order. Each
// page stays pinned only while its rows are decoded.
func (e *Engine) scanTable(t *table, visit func(*tuple.Row) error) error {
	for pageNo := primitives.PageNumber(0); pageNo < t.meta.PageCount; pageNo++ {
		if err := e.scanPage(t, pageNo, visit); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) scanPage(t *table, pageNo primitives.PageNumber, visit func(*tuple.Row) error) error {
	p, err := t.pool.Get(pageNo)
	if err != nil {
		return err
	}
	defer t.pool.Release(p)

	hp := heap.NewHeapPage(p)
	for slot := primitives.SlotID(0); slot < hp.NumSlots(); slot++ {
		data, occupied := hp.RowAt(slot)
		if !occupied {
			continue
		}
		row, err := tuple.Decode(t.meta.Schema, data)
		if err != nil {
			return err
		}
		row.RecordID = &tuple.RecordID{PageNo: pageNo, Slot: slot}
		if err := visit(row); err != nil {
			return err
		}
	}
	return nil
}

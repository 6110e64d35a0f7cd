package engine

import (
	"errors"
	"fmt"

	"github.com/gopu-inc/gsql/pkg/index/btree"
	"github.com/gopu-inc/gsql/pkg/log/record"
	"github.com/gopu-inc/gsql/pkg/logging"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/heap"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// recover replays the write-ahead log in append order. Replay is
// idempotent: each record targets a fixed slot, and records whose
// effect already reached the data file are skipped. The log is
// truncated only after every table and index reached disk.
func (e *Engine) recover() error {
	records, err := e.wal.Records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	replayed := 0
	for _, rec := range records {
		t, exists := e.tables[rec.Table]
		if !exists {
			// logged before the catalog write made it to disk;
			// with no schema the payload cannot be decoded
			logging.Warn("skipping log record for unknown table",
				"table", rec.Table, "lsn", rec.LSN)
			continue
		}
		if err := e.replayRecord(t, rec); err != nil {
			return fmt.Errorf("replay of record lsn=%d failed: %w", rec.LSN, err)
		}
		replayed++
	}

	for _, name := range e.tableNames() {
		t := e.tables[name]
		if err := t.pool.FlushAll(); err != nil {
			return err
		}
		if t.index != nil {
			if err := t.index.Flush(); err != nil {
				return err
			}
		}
	}

	logging.Info("log replay complete", "records", replayed)
	return e.wal.Truncate()
}

func (e *Engine) replayRecord(t *table, rec *record.LogRecord) error {
	if err := e.ensureAllocated(t, rec.Target.PageNo); err != nil {
		return err
	}

	switch rec.Kind {
	case record.InsertRecord:
		return e.replayInsert(t, rec)
	case record.DeleteRecord:
		return e.replayDelete(t, rec)
	default:
		return fmt.Errorf("unknown log record kind %d", rec.Kind)
	}
}

// ensureAllocated extends the data file so the target page exists.
// Pages written after logging but before the crash may be missing.
func (e *Engine) ensureAllocated(t *table, pageNo primitives.PageNumber) error {
	for t.meta.PageCount <= pageNo {
		allocated, err := t.pool.Allocate()
		if err != nil {
			return err
		}
		t.meta.PageCount = allocated + 1
	}
	return nil
}

// replayInsert writes the logged row back into its slot. An occupied
// slot means the page flush won the race before the crash; the heap
// write is skipped, but the index entry is still reconciled since the
// index file flushes independently of the data file.
func (e *Engine) replayInsert(t *table, rec *record.LogRecord) error {
	p, err := t.pool.Get(rec.Target.PageNo)
	if err != nil {
		return err
	}
	hp := heap.NewHeapPage(p)

	applied := false
	if !hp.SlotOccupied(rec.Target.Slot) {
		if err := hp.InsertRowAt(rec.Target.Slot, rec.Payload); err != nil {
			t.pool.Release(p)
			return err
		}
		applied = true
	}
	t.pool.Release(p)
	if applied {
		if err := t.pool.MarkDirty(rec.Target.PageNo, rec.LSN); err != nil {
			return err
		}
	}

	if t.index == nil {
		return nil
	}
	row, err := tuple.Decode(t.meta.Schema, rec.Payload)
	if err != nil {
		return err
	}
	key, err := row.GetField(t.meta.PrimaryKey)
	if err != nil {
		return err
	}
	if key.Kind() == types.NullKind {
		return nil
	}
	if err := t.index.Insert(key, rec.Target); err != nil && !errors.Is(err, btree.ErrDuplicateKey) {
		return err
	}
	return nil
}

// replayDelete clears the logged slot. An already empty slot means
// the delete reached disk before the crash.
func (e *Engine) replayDelete(t *table, rec *record.LogRecord) error {
	p, err := t.pool.Get(rec.Target.PageNo)
	if err != nil {
		return err
	}
	hp := heap.NewHeapPage(p)

	applied := false
	if hp.SlotOccupied(rec.Target.Slot) {
		if err := hp.DeleteRow(rec.Target.Slot); err != nil {
			t.pool.Release(p)
			return err
		}
		applied = true
	}
	t.pool.Release(p)
	if applied {
		if err := t.pool.MarkDirty(rec.Target.PageNo, rec.LSN); err != nil {
			return err
		}
	}

	if t.index == nil {
		return nil
	}
	row, err := tuple.Decode(t.meta.Schema, rec.Payload)
	if err != nil {
		return err
	}
	key, err := row.GetField(t.meta.PrimaryKey)
	if err != nil {
		return err
	}
	if key.Kind() == types.NullKind {
		return nil
	}
	if err := t.index.Delete(key); err != nil && !errors.Is(err, btree.ErrKeyNotFound) {
		return err
	}
	return nil
}

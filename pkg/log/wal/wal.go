// Package wal implements the append-only write-ahead log. Mutations
// are logged here and flushed before the corresponding data pages may
// reach disk.
package wal

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/log/record"
	"github.com/gopu-inc/gsql/pkg/logging"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/tuple"
)

// WAL manages the shared write-ahead log file. Records are appended in
// mutation order and replayed strictly in that order on recovery.
type WAL struct {
	path   string
	file   *os.File
	writer *LogWriter
	mutex  sync.Mutex
}

// Open opens (creating if absent) the WAL at path and positions the
// writer at its end.
func Open(path string, bufferSize int) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, gerr.Io(err, "failed to open WAL %s", path)
	}

	pos, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, gerr.Io(err, "failed to seek to end of WAL %s", path)
	}

	return &WAL{
		path:   path,
		file:   file,
		writer: NewLogWriter(file, bufferSize, primitives.LSN(pos), primitives.LSN(pos)),
	}, nil
}

// LogInsert appends an insert record. The record is buffered, not yet
// durable; the insert commits only once Flush returns.
func (w *WAL) LogInsert(table string, target tuple.RecordID, payload []byte) (primitives.LSN, error) {
	return w.append(record.NewInsertRecord(table, target, payload))
}

// LogDelete appends a delete record under the same discipline as
// LogInsert.
func (w *WAL) LogDelete(table string, target tuple.RecordID, payload []byte) (primitives.LSN, error) {
	return w.append(record.NewDeleteRecord(table, target, payload))
}

func (w *WAL) append(rec *record.LogRecord) (primitives.LSN, error) {
	data, err := rec.Serialize()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize log record: %w", err)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.writer.Write(data)
}

// Flush forces every buffered record to stable storage. A mutation is
// acknowledged to the caller only after its Flush succeeds.
func (w *WAL) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writer.Force(w.writer.CurrentLSN()); err != nil {
		return gerr.Io(err, "failed to flush WAL %s", w.path)
	}
	if err := w.file.Sync(); err != nil {
		return gerr.Io(err, "failed to sync WAL %s", w.path)
	}
	return nil
}

// FlushedLSN returns the position up to which the log is durable. The
// buffer pool checks this before flushing a dirty data page.
func (w *WAL) FlushedLSN() primitives.LSN {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.writer.FlushedLSN()
}

// Records reads every record currently in the log, in append order.
// Used by recovery before the engine accepts new statements. A record
// torn by a crash mid-append is dropped with its tail, since the
// mutation it described was never acknowledged.
func (w *WAL) Records() ([]*record.LogRecord, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writer.Force(w.writer.CurrentLSN()); err != nil {
		return nil, gerr.Io(err, "failed to flush WAL %s before read", w.path)
	}

	reader, err := NewLogReader(w.path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	info, err := w.file.Stat()
	if err != nil {
		return nil, gerr.Io(err, "failed to stat WAL %s", w.path)
	}
	if end := reader.Offset(); end < info.Size() {
		if err := w.file.Truncate(end); err != nil {
			return nil, gerr.Io(err, "failed to drop torn WAL tail at %d", end)
		}
		if err := w.file.Sync(); err != nil {
			return nil, gerr.Io(err, "failed to sync WAL %s after tail drop", w.path)
		}
		w.writer = NewLogWriter(w.file, w.writer.capacity, primitives.LSN(end), primitives.LSN(end))
		logging.Warn("wal tail dropped", "path", w.path, "bytes", info.Size()-end)
	}
	return records, nil
}

// Truncate discards the log after a confirmed replay: every logged
// mutation is known to be applied and flushed to the data files.
func (w *WAL) Truncate() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return gerr.Io(err, "failed to truncate WAL %s", w.path)
	}
	if err := w.file.Sync(); err != nil {
		return gerr.Io(err, "failed to sync WAL %s after truncate", w.path)
	}
	w.writer = NewLogWriter(w.file, w.writer.capacity, 0, 0)
	logging.Info("wal truncated", "path", w.path)
	return nil
}

// Close flushes buffered records and closes the log file.
func (w *WAL) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writer.Close(); err != nil {
		return fmt.Errorf("failed to flush WAL writer: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return gerr.Io(err, "failed to sync WAL %s", w.path)
	}
	return w.file.Close()
}

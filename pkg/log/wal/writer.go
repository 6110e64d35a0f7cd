package wal

import (
	"io"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// LogWriter appends serialized records through an in-memory pending
// buffer. current is the offset the next record will be assigned;
// flushed trails it by whatever is still pending.
type LogWriter struct {
	out      io.WriterAt
	pending  []byte
	capacity int
	current  primitives.LSN
	flushed  primitives.LSN
}

// NewLogWriter creates a writer appending at position current, with
// everything up to flushed already in the file.
func NewLogWriter(out io.WriterAt, capacity int, current, flushed primitives.LSN) *LogWriter {
	return &LogWriter{
		out:      out,
		pending:  make([]byte, 0, capacity),
		capacity: capacity,
		current:  current,
		flushed:  flushed,
	}
}

// Write buffers one serialized record and returns the LSN assigned to
// it. A record too large for the buffer is written through directly.
func (w *LogWriter) Write(data []byte) (primitives.LSN, error) {
	lsn := w.current

	if len(data) > w.capacity {
		if err := w.flush(); err != nil {
			return 0, err
		}
		if _, err := w.out.WriteAt(data, int64(w.flushed)); err != nil {
			return 0, err
		}
		w.current += primitives.LSN(len(data))
		w.flushed = w.current
		return lsn, nil
	}

	if len(w.pending)+len(data) > w.capacity {
		if err := w.flush(); err != nil {
			return 0, err
		}
	}
	w.pending = append(w.pending, data...)
	w.current += primitives.LSN(len(data))
	return lsn, nil
}

// Force guarantees every record up to and including lsn is in the
// file. Syncing the file is the caller's concern.
func (w *LogWriter) Force(lsn primitives.LSN) error {
	if w.flushed > lsn {
		return nil
	}
	return w.flush()
}

func (w *LogWriter) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	if _, err := w.out.WriteAt(w.pending, int64(w.flushed)); err != nil {
		return err
	}
	w.flushed = w.current
	w.pending = w.pending[:0]
	return nil
}

// CurrentLSN returns the LSN the next record will be assigned.
func (w *LogWriter) CurrentLSN() primitives.LSN {
	return w.current
}

// FlushedLSN returns the LSN up to which records are in the file.
func (w *LogWriter) FlushedLSN() primitives.LSN {
	return w.flushed
}

// Close flushes whatever is still pending.
func (w *LogWriter) Close() error {
	return w.flush()
}

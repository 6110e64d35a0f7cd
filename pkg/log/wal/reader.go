package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/gopu-inc/gsql/pkg/log/record"
	"github.com/gopu-inc/gsql/pkg/primitives"
)

// MaxLogRecordSize bounds a single record (sanity check against a
// corrupt size prefix).
const MaxLogRecordSize = 10 * 1024 * 1024

// LogReader reads records from a WAL file sequentially, assigning each
// its LSN (byte offset) as it goes.
type LogReader struct {
	file   *os.File
	offset int64
}

// NewLogReader opens a reader positioned at the start of the log.
func NewLogReader(logPath string) (*LogReader, error) {
	file, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &LogReader{file: file}, nil
}

// ReadNext reads the next record, or io.EOF at the end of the log.
// A record cut short by a crash mid-append also reads as the end: the
// mutation it describes was never acknowledged, so the log effectively
// stops at the last whole record. Offset reports where that is.
func (lr *LogReader) ReadNext() (*record.LogRecord, error) {
	sizeBuf := make([]byte, record.SizePrefixLen)
	n, err := lr.file.ReadAt(sizeBuf, lr.offset)
	if err == io.EOF || n == 0 {
		// n > 0 here means a torn size prefix at the tail
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record size at offset %d: %w", lr.offset, err)
	}

	size := binary.BigEndian.Uint32(sizeBuf)
	if size < record.SizePrefixLen || size > MaxLogRecordSize {
		return nil, fmt.Errorf("invalid record size %d at offset %d", size, lr.offset)
	}

	full := make([]byte, size)
	copy(full, sizeBuf)
	if _, err := io.ReadFull(io.NewSectionReader(lr.file, lr.offset+record.SizePrefixLen, int64(size)-record.SizePrefixLen), full[record.SizePrefixLen:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("incomplete record at offset %d: %w", lr.offset, err)
	}

	rec, err := record.Deserialize(full)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize record at offset %d: %w", lr.offset, err)
	}
	rec.LSN = primitives.LSN(lr.offset)
	lr.offset += int64(size)
	return rec, nil
}

// Offset returns the byte position just past the last whole record
// read so far.
func (lr *LogReader) Offset() int64 {
	return lr.offset
}

// ReadAll reads every record from the current position to the end.
func (lr *LogReader) ReadAll() ([]*record.LogRecord, error) {
	var records []*record.LogRecord
	for {
		rec, err := lr.ReadNext()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Close closes the underlying file.
func (lr *LogReader) Close() error {
	if lr.file != nil {
		return lr.file.Close()
	}
	return nil
}

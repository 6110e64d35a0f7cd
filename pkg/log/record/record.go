// Package record defines the wire format of write-ahead log records.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/tuple"
)

// Kind discriminates the mutation a log record describes.
type Kind uint8

const (
	InsertRecord Kind = iota
	DeleteRecord
)

func (k Kind) String() string {
	switch k {
	case InsertRecord:
		return "INSERT"
	case DeleteRecord:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// SizePrefixLen is the length of the record size prefix used for log
// scanning.
const SizePrefixLen = 4

// LogRecord describes one mutation: which table, which page and slot
// it targeted, and the encoded row payload. The target RecordID is
// what makes replay idempotent: a record whose slot is already
// occupied has been applied and is skipped.
type LogRecord struct {
	LSN     primitives.LSN // byte offset in the log file, assigned on write
	Kind    Kind
	Table   string
	Target  tuple.RecordID
	Payload []byte // encoded row bytes (insert: the new row, delete: the removed row)
}

// NewInsertRecord builds an insert log record.
func NewInsertRecord(table string, target tuple.RecordID, payload []byte) *LogRecord {
	return &LogRecord{Kind: InsertRecord, Table: table, Target: target, Payload: payload}
}

// NewDeleteRecord builds a delete log record.
func NewDeleteRecord(table string, target tuple.RecordID, payload []byte) *LogRecord {
	return &LogRecord{Kind: DeleteRecord, Table: table, Target: target, Payload: payload}
}

// Serialize converts the record to its binary form:
//
//	[Size:4][Kind:1][PageNo:8][Slot:2][TableLen:2][Table][Payload]
//
// The leading Size covers the whole record including itself. The
// payload is snappy-compressed; Deserialize transparently expands it.
func (r *LogRecord) Serialize() ([]byte, error) {
	if len(r.Table) > 0xFFFF {
		return nil, fmt.Errorf("table name too long: %d bytes", len(r.Table))
	}

	compressed := snappy.Encode(nil, r.Payload)

	var buf bytes.Buffer
	buf.Write(make([]byte, SizePrefixLen))
	buf.WriteByte(byte(r.Kind))

	var fixed [12]byte
	binary.BigEndian.PutUint64(fixed[0:8], uint64(r.Target.PageNo))
	binary.BigEndian.PutUint16(fixed[8:10], uint16(r.Target.Slot))
	binary.BigEndian.PutUint16(fixed[10:12], uint16(len(r.Table)))
	buf.Write(fixed[:])
	buf.WriteString(r.Table)
	buf.Write(compressed)

	data := buf.Bytes()
	binary.BigEndian.PutUint32(data, uint32(len(data)))
	return data, nil
}

// Deserialize parses a full record produced by Serialize, size prefix
// included.
func Deserialize(data []byte) (*LogRecord, error) {
	const fixedLen = SizePrefixLen + 1 + 12
	if len(data) < fixedLen {
		return nil, fmt.Errorf("log record too short: %d bytes", len(data))
	}

	size := binary.BigEndian.Uint32(data)
	if int(size) != len(data) {
		return nil, fmt.Errorf("log record size mismatch: header says %d, have %d", size, len(data))
	}

	r := &LogRecord{Kind: Kind(data[SizePrefixLen])}
	if r.Kind != InsertRecord && r.Kind != DeleteRecord {
		return nil, fmt.Errorf("unknown log record kind %d", data[SizePrefixLen])
	}

	body := data[SizePrefixLen+1:]
	r.Target.PageNo = primitives.PageNumber(binary.BigEndian.Uint64(body[0:8]))
	r.Target.Slot = primitives.SlotID(binary.BigEndian.Uint16(body[8:10]))
	tableLen := int(binary.BigEndian.Uint16(body[10:12]))

	if len(body) < 12+tableLen {
		return nil, fmt.Errorf("log record truncated in table name")
	}
	r.Table = string(body[12 : 12+tableLen])

	payload, err := snappy.Decode(nil, body[12+tableLen:])
	if err != nil {
		return nil, fmt.Errorf("failed to decompress log payload: %w", err)
	}
	r.Payload = payload
	return r, nil
}

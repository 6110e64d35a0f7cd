package record

import (
	"bytes"
	"testing"

	"github.com/gopu-inc/gsql/pkg/tuple"
)

func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name string
		rec  *LogRecord
	}{
		{
			name: "Insert record",
			rec:  NewInsertRecord("users", tuple.RecordID{PageNo: 3, Slot: 7}, []byte("row bytes")),
		},
		{
			name: "Delete record",
			rec:  NewDeleteRecord("orders", tuple.RecordID{PageNo: 0, Slot: 0}, []byte{0x01, 0x02}),
		},
		{
			name: "Empty payload",
			rec:  NewInsertRecord("t", tuple.RecordID{PageNo: 9, Slot: 1}, nil),
		},
		{
			name: "Highly compressible payload",
			rec:  NewInsertRecord("logs", tuple.RecordID{PageNo: 1, Slot: 2}, bytes.Repeat([]byte{0xAA}, 4096)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.rec.Serialize()
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}

			got, err := Deserialize(data)
			if err != nil {
				t.Fatalf("Deserialize failed: %v", err)
			}

			if got.Kind != tt.rec.Kind {
				t.Errorf("Expected kind %s, got %s", tt.rec.Kind, got.Kind)
			}
			if got.Table != tt.rec.Table {
				t.Errorf("Expected table %q, got %q", tt.rec.Table, got.Table)
			}
			if !got.Target.Equals(&tt.rec.Target) {
				t.Errorf("Expected target %s, got %s", tt.rec.Target.String(), got.Target.String())
			}
			if !bytes.Equal(got.Payload, tt.rec.Payload) {
				t.Errorf("Payload mismatch: expected %d bytes, got %d", len(tt.rec.Payload), len(got.Payload))
			}
		})
	}
}

func TestCompressionShrinksRepetitivePayload(t *testing.T) {
	rec := NewInsertRecord("t", tuple.RecordID{}, bytes.Repeat([]byte{0x00}, 8000))
	data, err := rec.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(data) >= 8000 {
		t.Errorf("Expected compressed record smaller than payload, got %d bytes", len(data))
	}
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	rec := NewInsertRecord("users", tuple.RecordID{PageNo: 1, Slot: 1}, []byte("x"))
	data, err := rec.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	if _, err := Deserialize(data[:4]); err == nil {
		t.Error("Expected error for truncated record")
	}
	if _, err := Deserialize(data[:len(data)-1]); err == nil {
		t.Error("Expected error for size mismatch")
	}

	bad := append([]byte(nil), data...)
	bad[SizePrefixLen] = 0xFF
	if _, err := Deserialize(bad); err == nil {
		t.Error("Expected error for unknown record kind")
	}
}

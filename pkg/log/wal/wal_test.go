package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopu-inc/gsql/pkg/log/record"
	"github.com/gopu-inc/gsql/pkg/tuple"
)

func openTestWAL(t *testing.T) (*WAL, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gsql.wal")
	w, err := Open(path, 4096)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, path
}

func TestAppendAndReadBack(t *testing.T) {
	w, _ := openTestWAL(t)

	lsn1, err := w.LogInsert("users", tuple.RecordID{PageNo: 0, Slot: 0}, []byte("alice"))
	require.NoError(t, err)
	lsn2, err := w.LogInsert("users", tuple.RecordID{PageNo: 0, Slot: 1}, []byte("bob"))
	require.NoError(t, err)
	lsn3, err := w.LogDelete("users", tuple.RecordID{PageNo: 0, Slot: 0}, []byte("alice"))
	require.NoError(t, err)

	assert.Less(t, lsn1, lsn2)
	assert.Less(t, lsn2, lsn3)

	records, err := w.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, record.InsertRecord, records[0].Kind)
	assert.Equal(t, []byte("alice"), records[0].Payload)
	assert.Equal(t, lsn1, records[0].LSN)

	assert.Equal(t, record.InsertRecord, records[1].Kind)
	assert.Equal(t, []byte("bob"), records[1].Payload)

	assert.Equal(t, record.DeleteRecord, records[2].Kind)
	assert.Equal(t, "users", records[2].Table)
}

func TestRecordsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gsql.wal")

	w, err := Open(path, 4096)
	require.NoError(t, err)
	_, err = w.LogInsert("t", tuple.RecordID{PageNo: 2, Slot: 5}, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	w, err = Open(path, 4096)
	require.NoError(t, err)
	defer w.Close()

	records, err := w.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tuple.RecordID{PageNo: 2, Slot: 5}, records[0].Target)
	assert.Equal(t, []byte("payload"), records[0].Payload)

	// appending after reopen continues past the existing records
	_, err = w.LogInsert("t", tuple.RecordID{PageNo: 2, Slot: 6}, []byte("more"))
	require.NoError(t, err)
	records, err = w.Records()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFlushAdvancesFlushedLSN(t *testing.T) {
	w, _ := openTestWAL(t)

	before := w.FlushedLSN()
	lsn, err := w.LogInsert("t", tuple.RecordID{}, []byte("x"))
	require.NoError(t, err)
	assert.LessOrEqual(t, before, lsn)

	require.NoError(t, w.Flush())
	assert.Greater(t, w.FlushedLSN(), lsn)
}

func TestTruncateEmptiesLog(t *testing.T) {
	w, _ := openTestWAL(t)

	_, err := w.LogInsert("t", tuple.RecordID{}, []byte("gone after truncate"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	require.NoError(t, w.Truncate())

	records, err := w.Records()
	require.NoError(t, err)
	assert.Empty(t, records)

	// the log keeps working after truncation
	_, err = w.LogInsert("t", tuple.RecordID{}, []byte("fresh"))
	require.NoError(t, err)
	records, err = w.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("fresh"), records[0].Payload)
}

// TestTornTailDroppedOnReopen simulates a crash mid-append: a size
// prefix promising more bytes than the file holds. The whole records
// before it must still read back, and the log must stay usable.
func TestTornTailDroppedOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gsql.wal")

	w, err := Open(path, 4096)
	require.NoError(t, err)
	_, err = w.LogInsert("t", tuple.RecordID{PageNo: 0, Slot: 0}, []byte("first"))
	require.NoError(t, err)
	_, err = w.LogInsert("t", tuple.RecordID{PageNo: 0, Slot: 1}, []byte("second"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	// a record cut short: complete size prefix, incomplete body
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	_, err = f.Write([]byte{0x00, 0x00, 0x00, 0x40, 0x01, 0x02})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = Open(path, 4096)
	require.NoError(t, err)
	defer w.Close()

	records, err := w.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []byte("first"), records[0].Payload)
	assert.Equal(t, []byte("second"), records[1].Payload)

	// the log keeps working past the dropped tail
	_, err = w.LogInsert("t", tuple.RecordID{PageNo: 0, Slot: 2}, []byte("third"))
	require.NoError(t, err)
	records, err = w.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []byte("third"), records[2].Payload)
}

func TestManyRecordsInOrder(t *testing.T) {
	w, _ := openTestWAL(t)

	const n = 500
	for i := 0; i < n; i++ {
		_, err := w.LogInsert("bulk", tuple.RecordID{PageNo: 0, Slot: 0}, []byte{byte(i)})
		require.NoError(t, err)
	}

	records, err := w.Records()
	require.NoError(t, err)
	require.Len(t, records, n)
	for i, rec := range records {
		require.Equal(t, []byte{byte(i)}, rec.Payload, "record %d out of order", i)
		if i > 0 {
			require.Greater(t, rec.LSN, records[i-1].LSN)
		}
	}
}

package heap

import (
	"bytes"
	"testing"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/page"
)

func freshHeapPage() *HeapPage {
	return NewHeapPage(page.NewEmptyPage(0))
}

func TestInsertAndReadRow(t *testing.T) {
	hp := freshHeapPage()

	row := []byte("hello world")
	slot, err := hp.InsertRow(row)
	if err != nil {
		t.Fatalf("InsertRow failed: %v", err)
	}
	if slot != 0 {
		t.Errorf("Expected first row in slot 0, got %d", slot)
	}

	got, occupied := hp.RowAt(slot)
	if !occupied {
		t.Fatal("Expected slot to be occupied")
	}
	if !bytes.Equal(got, row) {
		t.Errorf("Expected row %q, got %q", row, got)
	}
}

func TestInsertAssignsSequentialSlots(t *testing.T) {
	hp := freshHeapPage()

	for i := 0; i < 10; i++ {
		slot, err := hp.InsertRow([]byte{byte(i)})
		if err != nil {
			t.Fatalf("InsertRow %d failed: %v", i, err)
		}
		if slot != primitives.SlotID(i) {
			t.Errorf("Expected slot %d, got %d", i, slot)
		}
	}
	if hp.NumSlots() != 10 {
		t.Errorf("Expected 10 slots, got %d", hp.NumSlots())
	}
}

func TestDeleteAndSlotReuse(t *testing.T) {
	hp := freshHeapPage()

	for i := 0; i < 3; i++ {
		if _, err := hp.InsertRow([]byte{byte(i), byte(i)}); err != nil {
			t.Fatalf("InsertRow failed: %v", err)
		}
	}

	if err := hp.DeleteRow(1); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}
	if hp.SlotOccupied(1) {
		t.Error("Expected slot 1 to be empty after delete")
	}
	if _, occupied := hp.RowAt(1); occupied {
		t.Error("RowAt should report an empty slot")
	}

	// neighboring rows stay readable
	if got, ok := hp.RowAt(2); !ok || !bytes.Equal(got, []byte{2, 2}) {
		t.Errorf("Slot 2 corrupted after delete: %v occupied=%v", got, ok)
	}

	slot, err := hp.InsertRow([]byte("reused"))
	if err != nil {
		t.Fatalf("InsertRow after delete failed: %v", err)
	}
	if slot != 1 {
		t.Errorf("Expected freed slot 1 to be reused, got %d", slot)
	}
}

func TestDeleteEmptySlot(t *testing.T) {
	hp := freshHeapPage()
	if _, err := hp.InsertRow([]byte("x")); err != nil {
		t.Fatalf("InsertRow failed: %v", err)
	}

	if err := hp.DeleteRow(0); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}
	if err := hp.DeleteRow(0); err == nil {
		t.Error("Expected error deleting an already empty slot")
	}
	if err := hp.DeleteRow(5); err == nil {
		t.Error("Expected error deleting a slot that never existed")
	}
}

func TestPageFull(t *testing.T) {
	hp := freshHeapPage()

	row := make([]byte, 1024)
	inserted := 0
	for {
		_, err := hp.InsertRow(row)
		if err == ErrPageFull {
			break
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		inserted++
		if inserted > page.PageSize/len(row) {
			t.Fatal("Inserted past physical capacity")
		}
	}

	// 8192 bytes minus header cannot hold 8 rows of 1024 plus slots
	if inserted != 7 {
		t.Errorf("Expected 7 rows of 1KB to fit, got %d", inserted)
	}

	if _, err := hp.InsertRow([]byte("small")); err != nil {
		t.Errorf("Small row should still fit after large-row failure: %v", err)
	}
}

func TestInsertRowAt(t *testing.T) {
	hp := freshHeapPage()

	if err := hp.InsertRowAt(3, []byte("replayed")); err != nil {
		t.Fatalf("InsertRowAt failed: %v", err)
	}
	if hp.NumSlots() != 4 {
		t.Errorf("Expected slot directory extended to 4, got %d", hp.NumSlots())
	}
	if got, ok := hp.RowAt(3); !ok || !bytes.Equal(got, []byte("replayed")) {
		t.Errorf("Expected row at slot 3, got %v occupied=%v", got, ok)
	}
	for slot := primitives.SlotID(0); slot < 3; slot++ {
		if hp.SlotOccupied(slot) {
			t.Errorf("Slot %d should remain empty", slot)
		}
	}

	if err := hp.InsertRowAt(3, []byte("again")); err == nil {
		t.Error("Expected error writing into an occupied slot")
	}
}

func TestFreeSpaceShrinks(t *testing.T) {
	hp := freshHeapPage()
	before := hp.FreeSpace()

	if _, err := hp.InsertRow(make([]byte, 100)); err != nil {
		t.Fatalf("InsertRow failed: %v", err)
	}
	after := hp.FreeSpace()

	if before-after != 100+slotEntrySize {
		t.Errorf("Expected free space to shrink by %d, got %d", 100+slotEntrySize, before-after)
	}
}

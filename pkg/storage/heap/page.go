// Package heap lays encoded rows out inside fixed-size pages using a
// slotted layout: a slot directory grows forward from the header while
// row bytes grow backward from the end of the page.
package heap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/page"
)

const (
	// headerSize is [numSlots:2][freeEnd:2].
	headerSize = 4
	// slotEntrySize is [offset:2][length:2] per slot. Offset 0 marks an
	// empty slot; no row can start at offset 0 because the header is
	// there.
	slotEntrySize = 4
)

// ErrPageFull reports that a row does not fit in the page's remaining
// free space. The caller is expected to allocate a fresh page; rows
// never span page boundaries.
var ErrPageFull = errors.New("row does not fit in page free space")

// HeapPage is a slotted-row view over a raw page. It mutates the
// page's bytes in place; callers mark the page dirty through the
// buffer pool after mutations.
type HeapPage struct {
	page *page.Page
}

// NewHeapPage wraps p. A zero-filled page is a valid empty heap page.
func NewHeapPage(p *page.Page) *HeapPage {
	return &HeapPage{page: p}
}

// NumSlots returns the number of slot directory entries, occupied or not.
func (hp *HeapPage) NumSlots() primitives.SlotID {
	return primitives.SlotID(binary.BigEndian.Uint16(hp.page.Data()))
}

func (hp *HeapPage) setNumSlots(n primitives.SlotID) {
	binary.BigEndian.PutUint16(hp.page.Data(), uint16(n))
}

// freeEnd is the offset where row data begins; free space lies between
// the slot directory and freeEnd. A zeroed header means a fresh page.
func (hp *HeapPage) freeEnd() int {
	end := int(binary.BigEndian.Uint16(hp.page.Data()[2:]))
	if end == 0 {
		return page.PageSize
	}
	return end
}

func (hp *HeapPage) setFreeEnd(end int) {
	binary.BigEndian.PutUint16(hp.page.Data()[2:], uint16(end))
}

func (hp *HeapPage) slotEntry(slot primitives.SlotID) (offset, length int) {
	base := headerSize + int(slot)*slotEntrySize
	data := hp.page.Data()
	return int(binary.BigEndian.Uint16(data[base:])), int(binary.BigEndian.Uint16(data[base+2:]))
}

func (hp *HeapPage) setSlotEntry(slot primitives.SlotID, offset, length int) {
	base := headerSize + int(slot)*slotEntrySize
	data := hp.page.Data()
	binary.BigEndian.PutUint16(data[base:], uint16(offset))
	binary.BigEndian.PutUint16(data[base+2:], uint16(length))
}

// FreeSpace returns the bytes available for one more row plus its slot
// entry, assuming no empty slot can be reused.
func (hp *HeapPage) FreeSpace() int {
	dirEnd := headerSize + int(hp.NumSlots())*slotEntrySize
	free := hp.freeEnd() - dirEnd - slotEntrySize
	if free < 0 {
		return 0
	}
	return free
}

// InsertRow places an encoded row into the page, reusing the first
// empty slot if one exists or appending a new one. Returns ErrPageFull
// when the row plus its directory entry exceeds the remaining space.
func (hp *HeapPage) InsertRow(row []byte) (primitives.SlotID, error) {
	numSlots := hp.NumSlots()

	slot := numSlots
	needEntry := true
	for s := primitives.SlotID(0); s < numSlots; s++ {
		if off, _ := hp.slotEntry(s); off == 0 {
			slot = s
			needEntry = false
			break
		}
	}

	dirEnd := headerSize + int(numSlots)*slotEntrySize
	if needEntry {
		dirEnd += slotEntrySize
	}
	newEnd := hp.freeEnd() - len(row)
	if newEnd < dirEnd {
		return 0, ErrPageFull
	}

	copy(hp.page.Data()[newEnd:], row)
	hp.setFreeEnd(newEnd)
	hp.setSlotEntry(slot, newEnd, len(row))
	if needEntry {
		hp.setNumSlots(numSlots + 1)
	}
	return slot, nil
}

// InsertRowAt places a row into a specific slot, extending the slot
// directory as needed. Used by WAL replay to re-apply an insert at its
// recorded location; an occupied target slot is a caller error.
func (hp *HeapPage) InsertRowAt(slot primitives.SlotID, row []byte) error {
	if occupied := hp.SlotOccupied(slot); occupied {
		return fmt.Errorf("slot %d already occupied", slot)
	}

	numSlots := hp.NumSlots()
	newNumSlots := numSlots
	if slot >= numSlots {
		newNumSlots = slot + 1
	}

	dirEnd := headerSize + int(newNumSlots)*slotEntrySize
	newEnd := hp.freeEnd() - len(row)
	if newEnd < dirEnd {
		return ErrPageFull
	}

	copy(hp.page.Data()[newEnd:], row)
	hp.setFreeEnd(newEnd)
	if newNumSlots != numSlots {
		hp.setNumSlots(newNumSlots)
	}
	hp.setSlotEntry(slot, newEnd, len(row))
	return nil
}

// RowAt returns the encoded row bytes at slot, or false if the slot is
// out of range or empty. The returned slice aliases the page.
func (hp *HeapPage) RowAt(slot primitives.SlotID) ([]byte, bool) {
	if slot >= hp.NumSlots() {
		return nil, false
	}
	offset, length := hp.slotEntry(slot)
	if offset == 0 {
		return nil, false
	}
	return hp.page.Data()[offset : offset+length], true
}

// SlotOccupied reports whether slot holds a row.
func (hp *HeapPage) SlotOccupied(slot primitives.SlotID) bool {
	_, ok := hp.RowAt(slot)
	return ok
}

// DeleteRow clears the slot's directory entry. The row bytes stay in
// place until the space is needed; the slot becomes reusable.
func (hp *HeapPage) DeleteRow(slot primitives.SlotID) error {
	if slot >= hp.NumSlots() {
		return fmt.Errorf("slot %d out of range [0, %d)", slot, hp.NumSlots())
	}
	if offset, _ := hp.slotEntry(slot); offset == 0 {
		return fmt.Errorf("slot %d is empty", slot)
	}
	hp.setSlotEntry(slot, 0, 0)
	return nil
}

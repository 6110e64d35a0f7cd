package tuple

import (
	"fmt"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

// RecordID locates a row inside its table's data file: the page that
// holds it and the slot within that page.
type RecordID struct {
	PageNo primitives.PageNumber
	Slot   primitives.SlotID
}

func NewRecordID(pageNo primitives.PageNumber, slot primitives.SlotID) *RecordID {
	return &RecordID{PageNo: pageNo, Slot: slot}
}

// Equals reports whether two record IDs point at the same slot.
func (rid *RecordID) Equals(other *RecordID) bool {
	if other == nil {
		return false
	}
	return rid.PageNo == other.PageNo && rid.Slot == other.Slot
}

func (rid *RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%d, slot=%d)", rid.PageNo, rid.Slot)
}

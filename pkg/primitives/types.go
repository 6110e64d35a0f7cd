package primitives

// LSN (Log Sequence Number) uniquely identifies each WAL record.
// It is monotonically increasing and represents the byte offset of the
// record in the log file.
type LSN uint64

// PageNumber identifies a page within a single file. Page numbers form
// a dense, gap-free sequence starting at 0.
type PageNumber uint64

// SlotID identifies a row slot within a page.
type SlotID uint16

// ColumnID identifies a column within a table schema.
type ColumnID uint32

// Sentinel values for invalid/unset identifiers.
const (
	// InvalidPageNumber marks an absent page reference: no next leaf,
	// no sibling, uninitialized pointer.
	InvalidPageNumber PageNumber = ^PageNumber(0)

	// InvalidSlotID marks an absent slot reference.
	InvalidSlotID SlotID = ^SlotID(0)
)

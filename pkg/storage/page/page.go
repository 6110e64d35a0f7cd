// Package page provides the fixed-size page, the unit of disk I/O and
// caching for every file the engine owns.
package page

import (
	"fmt"

	"github.com/gopu-inc/gsql/pkg/primitives"
)

const (
	// PageSize is the size of each page in bytes (8KB). No partial-page
	// I/O ever happens; files are always an exact multiple of PageSize.
	PageSize = 8192
)

// Page is a PageSize-byte container resident in the buffer pool.
// The dirty flag, pin count, and recovery LSN are in-memory only and
// never persisted. Pages are not internally synchronized; the buffer
// pool serializes access.
type Page struct {
	id      primitives.PageNumber
	data    []byte
	dirty   bool
	pins    int
	recLSN  primitives.LSN // LSN of the earliest unflushed WAL record touching this page
	pageLSN primitives.LSN // LSN of the latest mutation; the flush barrier covers up to here
}

// NewPage wraps raw page bytes. data must be exactly PageSize bytes.
func NewPage(id primitives.PageNumber, data []byte) (*Page, error) {
	if len(data) != PageSize {
		return nil, fmt.Errorf("invalid page data size: expected %d, got %d", PageSize, len(data))
	}
	return &Page{id: id, data: data}, nil
}

// NewEmptyPage creates a zero-filled page.
func NewEmptyPage(id primitives.PageNumber) *Page {
	return &Page{id: id, data: make([]byte, PageSize)}
}

// ID returns the page number of this page within its file.
func (p *Page) ID() primitives.PageNumber {
	return p.id
}

// Data returns the page's backing bytes. Mutating the returned slice
// mutates the page; callers must MarkDirty afterwards.
func (p *Page) Data() []byte {
	return p.data
}

// IsDirty reports whether the page has been modified since it was last
// written to disk.
func (p *Page) IsDirty() bool {
	return p.dirty
}

// MarkDirty flags the page for a later flush and records the WAL
// position of the mutation so the pool can enforce the WAL-before-data
// rule. recLSN keeps the first unflushed mutation; pageLSN tracks the
// latest, since the log must be durable past every mutation on the
// page before its bytes may hit the data file.
func (p *Page) MarkDirty(lsn primitives.LSN) {
	if !p.dirty {
		p.recLSN = lsn
	}
	if lsn > p.pageLSN {
		p.pageLSN = lsn
	}
	p.dirty = true
}

// MarkClean clears the dirty flag after a successful flush.
func (p *Page) MarkClean() {
	p.dirty = false
	p.recLSN = 0
	p.pageLSN = 0
}

// RecLSN returns the LSN recorded by the first unflushed mutation, or
// 0 for a clean page.
func (p *Page) RecLSN() primitives.LSN {
	return p.recLSN
}

// PageLSN returns the LSN of the latest mutation, or 0 for a clean
// page.
func (p *Page) PageLSN() primitives.LSN {
	return p.pageLSN
}

// Pin takes a hold on the page, preventing eviction.
func (p *Page) Pin() {
	p.pins++
}

// Unpin releases one hold. Unpinning an unpinned page is a
// programming-contract violation and panics.
func (p *Page) Unpin() {
	if p.pins == 0 {
		panic(fmt.Sprintf("unpin of unpinned page %d", p.id))
	}
	p.pins--
}

// PinCount returns the number of outstanding holds.
func (p *Page) PinCount() int {
	return p.pins
}

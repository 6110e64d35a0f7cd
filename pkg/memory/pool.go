package memory

import (
	"fmt"
	"sync"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/logging"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/page"
)

// DefaultCapacity is the default number of resident pages per pool.
const DefaultCapacity = 64

// FlushBarrier is the durability ordering contract between the pool
// and the write-ahead log: a dirty page may reach the data file only
// after the log is durable up to the page's recovery LSN.
type FlushBarrier interface {
	FlushedLSN() primitives.LSN
	Flush() error
}

// BufferPool caches pages of one backing file with a hard capacity
// bound. All reads and writes of that file go through the pool; pages
// checked out via Get are pinned until Release, and pinned pages are
// never evicted.
type BufferPool struct {
	file     *page.PageFile
	cache    *lruCache
	capacity int
	barrier  FlushBarrier // nil for files with no logged mutations (index files)
	mutex    sync.Mutex
}

// NewBufferPool creates a pool over file with the given capacity.
// barrier may be nil when the file's pages are not WAL-protected.
func NewBufferPool(file *page.PageFile, capacity int, barrier FlushBarrier) *BufferPool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &BufferPool{
		file:     file,
		cache:    newLRUCache(capacity),
		capacity: capacity,
		barrier:  barrier,
	}
}

// Get returns the page with the given number, reading it from disk if
// not resident, and pins it. Callers must Release the page when done,
// on error paths included:
//
//	p, err := pool.Get(pageNo)
//	if err != nil { ... }
//	defer pool.Release(p)
func (bp *BufferPool) Get(pageNo primitives.PageNumber) (*page.Page, error) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if p, exists := bp.cache.get(pageNo); exists {
		p.Pin()
		return p, nil
	}

	if bp.cache.size() >= bp.capacity {
		if err := bp.evict(); err != nil {
			return nil, err
		}
	}

	p, err := bp.file.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	if err := bp.cache.put(pageNo, p); err != nil {
		return nil, fmt.Errorf("failed to cache page %d: %w", pageNo, err)
	}

	p.Pin()
	logging.Debug("page read", "file", bp.file.FilePath(), "page", pageNo)
	return p, nil
}

// Release unpins a page previously returned by Get.
func (bp *BufferPool) Release(p *page.Page) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	p.Unpin()
}

// MarkDirty flags a resident page for a later flush, recording the WAL
// position of the mutation. A non-resident page is a
// programming-contract violation.
func (bp *BufferPool) MarkDirty(pageNo primitives.PageNumber, lsn primitives.LSN) error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	p, exists := bp.cache.peek(pageNo)
	if !exists {
		return fmt.Errorf("internal: MarkDirty on non-resident page %d", pageNo)
	}
	p.MarkDirty(lsn)
	return nil
}

// Flush writes the page back if dirty, honoring the WAL barrier.
func (bp *BufferPool) Flush(pageNo primitives.PageNumber) error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	p, exists := bp.cache.peek(pageNo)
	if !exists {
		return fmt.Errorf("internal: Flush of non-resident page %d", pageNo)
	}
	return bp.flushPage(p)
}

// FlushAll writes every dirty resident page back to the file.
func (bp *BufferPool) FlushAll() error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, pageNo := range bp.cache.lruOrder() {
		p, exists := bp.cache.peek(pageNo)
		if !exists {
			continue
		}
		if err := bp.flushPage(p); err != nil {
			return err
		}
	}
	return nil
}

// flushPage enforces WAL-before-data: the log must be durable past the
// page's latest mutation before the page bytes may hit the data file.
func (bp *BufferPool) flushPage(p *page.Page) error {
	if !p.IsDirty() {
		return nil
	}

	if bp.barrier != nil && bp.barrier.FlushedLSN() <= p.PageLSN() {
		if err := bp.barrier.Flush(); err != nil {
			return fmt.Errorf("WAL flush before data page %d: %w", p.ID(), err)
		}
	}

	if err := bp.file.WritePage(p); err != nil {
		return err
	}
	p.MarkClean()
	logging.Debug("page flushed", "file", bp.file.FilePath(), "page", p.ID())
	return nil
}

// evict removes the least recently used unpinned page, flushing it
// first if dirty. With every resident page pinned the pool reports
// capacity exhaustion rather than exceeding its bound.
func (bp *BufferPool) evict() error {
	for _, pageNo := range bp.cache.lruOrder() {
		p, exists := bp.cache.peek(pageNo)
		if !exists || p.PinCount() > 0 {
			continue
		}
		if err := bp.flushPage(p); err != nil {
			return err
		}
		bp.cache.remove(pageNo)
		logging.Debug("page evicted", "file", bp.file.FilePath(), "page", pageNo)
		return nil
	}
	return gerr.Other("buffer pool at capacity (%d pages) with all pages pinned", bp.capacity)
}

// Allocate extends the backing file by one page and returns the new
// page's number. The page is not resident until the first Get.
func (bp *BufferPool) Allocate() (primitives.PageNumber, error) {
	return bp.file.AllocatePage()
}

// NumPages returns the number of pages allocated in the backing file.
func (bp *BufferPool) NumPages() (primitives.PageNumber, error) {
	return bp.file.NumPages()
}

// Resident returns the number of pages currently cached.
func (bp *BufferPool) Resident() int {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	return bp.cache.size()
}

// Close flushes all dirty pages and closes the backing file.
func (bp *BufferPool) Close() error {
	if err := bp.FlushAll(); err != nil {
		return err
	}
	return bp.file.Close()
}

package memory

import (
	"path/filepath"
	"testing"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/page"
)

// recordingBarrier counts WAL flush requests, pretending everything up
// to flushedLSN is already durable.
type recordingBarrier struct {
	flushedLSN primitives.LSN
	flushes    int
}

func (b *recordingBarrier) FlushedLSN() primitives.LSN {
	return b.flushedLSN
}

func (b *recordingBarrier) Flush() error {
	b.flushes++
	b.flushedLSN = ^primitives.LSN(0)
	return nil
}

func newTestPool(t *testing.T, capacity int, barrier FlushBarrier) *BufferPool {
	t.Helper()
	path := primitives.Filepath(filepath.Join(t.TempDir(), "pool.tbl"))
	file, err := page.OpenPageFile(path)
	if err != nil {
		t.Fatalf("OpenPageFile failed: %v", err)
	}
	t.Cleanup(func() { file.Close() })

	pool := NewBufferPool(file, capacity, barrier)
	for i := 0; i < capacity+2; i++ {
		if _, err := pool.Allocate(); err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
	}
	return pool
}

func TestGetPinsAndReleaseUnpins(t *testing.T) {
	pool := newTestPool(t, 4, nil)

	p, err := pool.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.PinCount() != 1 {
		t.Errorf("Expected pin count 1, got %d", p.PinCount())
	}

	p2, err := pool.Get(0)
	if err != nil {
		t.Fatalf("Second Get failed: %v", err)
	}
	if p2 != p {
		t.Error("Expected the same resident page")
	}
	if p.PinCount() != 2 {
		t.Errorf("Expected pin count 2, got %d", p.PinCount())
	}

	pool.Release(p)
	pool.Release(p2)
	if p.PinCount() != 0 {
		t.Errorf("Expected pin count 0, got %d", p.PinCount())
	}
}

func TestCapacityBoundWithEviction(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	for i := primitives.PageNumber(0); i < 4; i++ {
		p, err := pool.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		pool.Release(p)

		if pool.Resident() > 2 {
			t.Fatalf("Resident pages %d exceed capacity 2", pool.Resident())
		}
	}
}

func TestAllPinnedExhaustsPool(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	a, err := pool.Get(0)
	if err != nil {
		t.Fatalf("Get(0) failed: %v", err)
	}
	defer pool.Release(a)
	b, err := pool.Get(1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}

	if _, err := pool.Get(2); err == nil {
		t.Error("Expected capacity exhaustion error with every page pinned")
	}

	// after one release the pool can evict again
	pool.Release(b)
	c, err := pool.Get(2)
	if err != nil {
		t.Fatalf("Get(2) after release failed: %v", err)
	}
	pool.Release(c)
}

func TestDirtyPageSurvivesEviction(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	p, err := pool.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	copy(p.Data(), []byte("persist me"))
	pool.Release(p)
	if err := pool.MarkDirty(0, 1); err != nil {
		t.Fatalf("MarkDirty failed: %v", err)
	}

	// push page 0 out of the pool
	for i := primitives.PageNumber(1); i < 3; i++ {
		q, err := pool.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		pool.Release(q)
	}

	p, err = pool.Get(0)
	if err != nil {
		t.Fatalf("Re-read of page 0 failed: %v", err)
	}
	defer pool.Release(p)
	if string(p.Data()[:10]) != "persist me" {
		t.Errorf("Expected flushed bytes back, got %q", p.Data()[:10])
	}
}

func TestMarkDirtyNonResident(t *testing.T) {
	pool := newTestPool(t, 2, nil)
	if err := pool.MarkDirty(0, 1); err == nil {
		t.Error("Expected error marking a non-resident page dirty")
	}
}

func TestFlushHonorsWALBarrier(t *testing.T) {
	barrier := &recordingBarrier{}
	pool := newTestPool(t, 2, barrier)

	p, err := pool.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	p.Data()[0] = 0xAB
	pool.Release(p)
	if err := pool.MarkDirty(0, 7); err != nil {
		t.Fatalf("MarkDirty failed: %v", err)
	}

	if err := pool.Flush(0); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if barrier.flushes != 1 {
		t.Errorf("Expected one WAL flush before the data flush, got %d", barrier.flushes)
	}

	// clean page: no further barrier interaction
	if err := pool.Flush(0); err != nil {
		t.Fatalf("Second flush failed: %v", err)
	}
	if barrier.flushes != 1 {
		t.Errorf("Clean page flush must not hit the WAL, got %d flushes", barrier.flushes)
	}
}

// TestBarrierCoversLatestMutation re-dirties a page past the point the
// log is already durable to: the flush must still force the log,
// because the barrier covers the page's latest mutation, not its
// first.
func TestBarrierCoversLatestMutation(t *testing.T) {
	barrier := &recordingBarrier{}
	pool := newTestPool(t, 2, barrier)

	p, err := pool.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	p.Data()[0] = 0x01
	pool.Release(p)
	if err := pool.MarkDirty(0, 10); err != nil {
		t.Fatalf("MarkDirty failed: %v", err)
	}

	// the log catches up past the first mutation, then the page is
	// mutated again
	barrier.flushedLSN = 50
	p, err = pool.Get(0)
	if err != nil {
		t.Fatalf("Second Get failed: %v", err)
	}
	p.Data()[0] = 0x02
	pool.Release(p)
	if err := pool.MarkDirty(0, 100); err != nil {
		t.Fatalf("Second MarkDirty failed: %v", err)
	}

	if err := pool.Flush(0); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if barrier.flushes != 1 {
		t.Errorf("Expected the WAL forced for the mutation at LSN 100, got %d flushes", barrier.flushes)
	}
}

func TestFlushAllCleansEverything(t *testing.T) {
	pool := newTestPool(t, 4, nil)

	for i := primitives.PageNumber(0); i < 3; i++ {
		p, err := pool.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		p.Data()[0] = byte(i + 1)
		pool.Release(p)
		if err := pool.MarkDirty(i, primitives.LSN(i)); err != nil {
			t.Fatalf("MarkDirty(%d) failed: %v", i, err)
		}
	}

	if err := pool.FlushAll(); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}

	for i := primitives.PageNumber(0); i < 3; i++ {
		p, err := pool.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if p.IsDirty() {
			t.Errorf("Page %d still dirty after FlushAll", i)
		}
		pool.Release(p)
	}
}

// Package btree implements the page-backed B+Tree index mapping
// primary-key values to row locations. Every node lives in one page of
// the index file, and all page access goes through a buffer pool.
package btree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gopu-inc/gsql/pkg/memory"
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// ErrDuplicateKey reports an insert whose key already exists in the
// tree. Primary keys and unique columns surface this to the caller.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrKeyNotFound reports a delete of an absent key.
var ErrKeyNotFound = errors.New("key not found")

var metaMagic = [4]byte{'G', 'S', 'Q', 'I'}

// BTree is one table's primary-key index. Page 0 of the index file is
// the meta page holding the root pointer; all other pages are nodes.
type BTree struct {
	pool *memory.BufferPool
	root primitives.PageNumber
}

// Open opens an index backed by pool, initializing a fresh file with a
// meta page and an empty leaf root.
func Open(pool *memory.BufferPool) (*BTree, error) {
	numPages, err := pool.NumPages()
	if err != nil {
		return nil, err
	}

	t := &BTree{pool: pool}
	if numPages == 0 {
		if err := t.initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize index: %w", err)
		}
		return t, nil
	}

	if err := t.readMeta(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *BTree) initialize() error {
	if _, err := t.pool.Allocate(); err != nil { // page 0: meta
		return err
	}
	rootNo, err := t.pool.Allocate()
	if err != nil {
		return err
	}

	if err := t.storeNode(newLeaf(rootNo)); err != nil {
		return err
	}
	t.root = rootNo
	if err := t.writeMeta(); err != nil {
		return err
	}

	// the meta page and empty root must reach disk now: until the
	// first checkpoint nothing else flushes them, and a crash would
	// otherwise leave an index file that can never be reopened
	return t.pool.FlushAll()
}

func (t *BTree) readMeta() error {
	p, err := t.pool.Get(0)
	if err != nil {
		return err
	}
	defer t.pool.Release(p)

	data := p.Data()
	if [4]byte(data[0:4]) != metaMagic {
		return fmt.Errorf("not an index file: bad magic")
	}
	t.root = primitives.PageNumber(binary.BigEndian.Uint64(data[4:]))
	return nil
}

func (t *BTree) writeMeta() error {
	p, err := t.pool.Get(0)
	if err != nil {
		return err
	}
	defer t.pool.Release(p)

	data := p.Data()
	copy(data[0:4], metaMagic[:])
	binary.BigEndian.PutUint64(data[4:], uint64(t.root))
	return t.pool.MarkDirty(0, 0)
}

// loadNode reads and parses the node at pageNo.
func (t *BTree) loadNode(pageNo primitives.PageNumber) (*node, error) {
	p, err := t.pool.Get(pageNo)
	if err != nil {
		return nil, err
	}
	defer t.pool.Release(p)
	return deserialize(p)
}

// storeNode serializes the node back into its page and marks it dirty.
func (t *BTree) storeNode(n *node) error {
	p, err := t.pool.Get(n.pageNo)
	if err != nil {
		return err
	}
	defer t.pool.Release(p)

	if err := n.serialize(p); err != nil {
		return err
	}
	return t.pool.MarkDirty(n.pageNo, 0)
}

// allocNode extends the index file by one page for a new node.
func (t *BTree) allocNode() (primitives.PageNumber, error) {
	return t.pool.Allocate()
}

// findLeaf descends from the root to the one leaf that could contain
// key, optionally recording the path of (node, child index) taken.
func (t *BTree) findLeaf(key types.Field, path *[]pathEntry) (*node, error) {
	n, err := t.loadNode(t.root)
	if err != nil {
		return nil, err
	}
	for !n.isLeaf() {
		idx := n.childIndex(key)
		if path != nil {
			*path = append(*path, pathEntry{node: n, childIdx: idx})
		}
		if n, err = t.loadNode(n.children[idx]); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// pathEntry records one internal node visited during descent and
// which child was taken.
type pathEntry struct {
	node     *node
	childIdx int
}

// Lookup returns the location stored for key, or ok=false.
func (t *BTree) Lookup(key types.Field) (tuple.RecordID, bool, error) {
	leaf, err := t.findLeaf(key, nil)
	if err != nil {
		return tuple.RecordID{}, false, err
	}

	pos, found := leaf.searchLeaf(key)
	if !found {
		return tuple.RecordID{}, false, nil
	}
	return leaf.rids[pos], true, nil
}

// Flush writes all dirty index pages to disk.
func (t *BTree) Flush() error {
	return t.pool.FlushAll()
}

// Close flushes and closes the index file.
func (t *BTree) Close() error {
	return t.pool.Close()
}

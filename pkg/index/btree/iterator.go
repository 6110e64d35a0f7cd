package btree

import (
	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// RangeIterator yields (key, location) pairs in ascending key order by
// walking the leaf chain. It is forward-only and not restartable;
// callers re-seek by starting a new scan.
type RangeIterator struct {
	tree *BTree
	leaf *node
	pos  int
	high types.Field // inclusive upper bound; nil for unbounded
}

// RangeScan returns an iterator over keys in [low, high]. A nil low
// starts at the smallest key; a nil high scans to the end.
func (t *BTree) RangeScan(low, high types.Field) (*RangeIterator, error) {
	var leaf *node
	var pos int

	if low == nil {
		n, err := t.leftmostLeaf()
		if err != nil {
			return nil, err
		}
		leaf = n
	} else {
		n, err := t.findLeaf(low, nil)
		if err != nil {
			return nil, err
		}
		leaf = n
		pos, _ = leaf.searchLeaf(low)
	}

	return &RangeIterator{tree: t, leaf: leaf, pos: pos, high: high}, nil
}

func (t *BTree) leftmostLeaf() (*node, error) {
	n, err := t.loadNode(t.root)
	if err != nil {
		return nil, err
	}
	for !n.isLeaf() {
		if n, err = t.loadNode(n.children[0]); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Next yields the next entry in ascending order. ok reports whether an
// entry was produced; the scan is finished once ok is false.
func (it *RangeIterator) Next() (types.Field, tuple.RecordID, bool, error) {
	for {
		if it.leaf == nil {
			return nil, tuple.RecordID{}, false, nil
		}

		if it.pos >= len(it.leaf.keys) {
			next := it.leaf.next
			if next == primitives.InvalidPageNumber {
				it.leaf = nil
				continue
			}
			n, err := it.tree.loadNode(next)
			if err != nil {
				return nil, tuple.RecordID{}, false, err
			}
			it.leaf = n
			it.pos = 0
			continue
		}

		key := it.leaf.keys[it.pos]
		rid := it.leaf.rids[it.pos]
		it.pos++

		if it.high != nil && keyLess(it.high, key) {
			it.leaf = nil
			return nil, tuple.RecordID{}, false, nil
		}
		return key, rid, true, nil
	}
}

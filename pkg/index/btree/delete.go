package btree

import (
	"fmt"
	"slices"

	"github.com/gopu-inc/gsql/pkg/storage/page"
	"github.com/gopu-inc/gsql/pkg/types"
)

// Delete removes key from the tree, rebalancing on underflow so every
// non-root node stays at least half full. Returns ErrKeyNotFound for
// an absent key.
func (t *BTree) Delete(key types.Field) error {
	var path []pathEntry
	leaf, err := t.findLeaf(key, &path)
	if err != nil {
		return err
	}

	pos, found := leaf.searchLeaf(key)
	if !found {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	leaf.keys = slices.Delete(leaf.keys, pos, pos+1)
	leaf.rids = slices.Delete(leaf.rids, pos, pos+1)
	if err := t.storeNode(leaf); err != nil {
		return err
	}
	return t.rebalance(leaf, path)
}

// rebalance restores the minimum-occupancy invariant after a removal,
// borrowing from a sibling when it has spare entries and merging
// otherwise, propagating upward as merges shrink parents.
func (t *BTree) rebalance(n *node, path []pathEntry) error {
	for n.pageNo != t.root && n.underflow() && len(path) > 0 {
		parent := path[len(path)-1].node
		idx := path[len(path)-1].childIdx

		var left, right *node
		var err error
		if idx > 0 {
			if left, err = t.loadNode(parent.children[idx-1]); err != nil {
				return err
			}
			if t.canLend(left) {
				return t.borrowFromLeft(n, left, parent, idx)
			}
		}
		if idx < len(parent.children)-1 {
			if right, err = t.loadNode(parent.children[idx+1]); err != nil {
				return err
			}
			if t.canLend(right) {
				return t.borrowFromRight(n, right, parent, idx)
			}
		}

		merged := false
		if left != nil {
			merged, err = t.merge(left, n, parent, idx-1)
		} else if right != nil {
			merged, err = t.merge(n, right, parent, idx)
		}
		if err != nil {
			return err
		}
		if !merged {
			// Neither sibling can lend and the merged node would not
			// fit in one page (wide variable-length keys). Tolerate the
			// underflow; lookups and scans stay correct.
			return nil
		}

		n = parent
		path = path[:len(path)-1]
	}

	// A root that lost its last separator has a single child; that
	// child becomes the new root, shrinking the tree by one level.
	if n.pageNo == t.root && !n.isLeaf() && len(n.keys) == 0 {
		t.root = n.children[0]
		return t.writeMeta()
	}
	return nil
}

// canLend reports whether sib can give up one entry and stay at least
// half full.
func (t *BTree) canLend(sib *node) bool {
	if len(sib.keys) < 2 {
		return false
	}
	largest := 0
	for _, k := range sib.keys {
		s := keySize(k)
		if sib.isLeaf() {
			s += ridSize
		} else {
			s += childSize
		}
		if s > largest {
			largest = s
		}
	}
	return sib.size()-largest >= page.PageSize/2
}

// borrowFromLeft moves left's last entry into n and refreshes the
// separator between them.
func (t *BTree) borrowFromLeft(n, left, parent *node, idx int) error {
	last := len(left.keys) - 1
	if n.isLeaf() {
		n.keys = slices.Insert(n.keys, 0, left.keys[last])
		n.rids = slices.Insert(n.rids, 0, left.rids[last])
		left.keys = left.keys[:last]
		left.rids = left.rids[:last]
		parent.keys[idx-1] = n.keys[0]
	} else {
		// Rotate through the parent: the separator comes down, the
		// sibling's last key goes up.
		n.keys = slices.Insert(n.keys, 0, parent.keys[idx-1])
		n.children = slices.Insert(n.children, 0, left.children[len(left.children)-1])
		parent.keys[idx-1] = left.keys[last]
		left.keys = left.keys[:last]
		left.children = left.children[:len(left.children)-1]
	}
	return t.storeNodes(left, n, parent)
}

// borrowFromRight moves right's first entry into n and refreshes the
// separator between them.
func (t *BTree) borrowFromRight(n, right, parent *node, idx int) error {
	if n.isLeaf() {
		n.keys = append(n.keys, right.keys[0])
		n.rids = append(n.rids, right.rids[0])
		right.keys = slices.Delete(right.keys, 0, 1)
		right.rids = slices.Delete(right.rids, 0, 1)
		parent.keys[idx] = right.keys[0]
	} else {
		n.keys = append(n.keys, parent.keys[idx])
		n.children = append(n.children, right.children[0])
		parent.keys[idx] = right.keys[0]
		right.keys = slices.Delete(right.keys, 0, 1)
		right.children = slices.Delete(right.children, 0, 1)
	}
	return t.storeNodes(right, n, parent)
}

// merge folds right into left and drops the separator at sepIdx from
// the parent. Reports false when the merged node would overflow a
// page. The emptied right page is left unreferenced; pages are not
// reclaimed.
func (t *BTree) merge(left, right, parent *node, sepIdx int) (bool, error) {
	sep := parent.keys[sepIdx]

	mergedSize := left.size() + right.size() - nodeHeaderSize
	if !left.isLeaf() {
		mergedSize += keySize(sep)
	}
	if mergedSize > page.PageSize {
		return false, nil
	}

	if left.isLeaf() {
		left.keys = append(left.keys, right.keys...)
		left.rids = append(left.rids, right.rids...)
		left.next = right.next
	} else {
		left.keys = append(left.keys, sep)
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}

	parent.keys = slices.Delete(parent.keys, sepIdx, sepIdx+1)
	parent.children = slices.Delete(parent.children, sepIdx+1, sepIdx+2)

	return true, t.storeNodes(left, parent)
}

func (t *BTree) storeNodes(nodes ...*node) error {
	for _, n := range nodes {
		if err := t.storeNode(n); err != nil {
			return err
		}
	}
	return nil
}

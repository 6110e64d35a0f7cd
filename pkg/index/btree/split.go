package btree

import (
	"fmt"
	"slices"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/page"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

// promotion carries a separator key and the new right sibling produced
// by a split, to be inserted into the parent.
type promotion struct {
	key   types.Field
	right primitives.PageNumber
}

// Insert adds key -> rid to the tree, splitting nodes as needed and
// growing a new root when a split propagates all the way up. Returns
// ErrDuplicateKey if the key already exists.
func (t *BTree) Insert(key types.Field, rid tuple.RecordID) error {
	if keySize(key) == 0 {
		return fmt.Errorf("unindexable key kind %s", key.Kind())
	}
	if nodeHeaderSize+keySize(key)+ridSize > page.PageSize {
		return fmt.Errorf("index key too large for one page")
	}

	promo, err := t.insertInto(t.root, key, rid)
	if err != nil {
		return err
	}
	if promo == nil {
		return nil
	}

	// Split reached the root: grow the tree by one level.
	newRootNo, err := t.allocNode()
	if err != nil {
		return err
	}
	newRoot := newInternal(newRootNo)
	newRoot.keys = []types.Field{promo.key}
	newRoot.children = []primitives.PageNumber{t.root, promo.right}
	if err := t.storeNode(newRoot); err != nil {
		return err
	}
	t.root = newRootNo
	return t.writeMeta()
}

// insertInto descends recursively and bubbles splits back up.
func (t *BTree) insertInto(pageNo primitives.PageNumber, key types.Field, rid tuple.RecordID) (*promotion, error) {
	n, err := t.loadNode(pageNo)
	if err != nil {
		return nil, err
	}

	if n.isLeaf() {
		return t.insertIntoLeaf(n, key, rid)
	}

	idx := n.childIndex(key)
	promo, err := t.insertInto(n.children[idx], key, rid)
	if err != nil || promo == nil {
		return nil, err
	}

	n.keys = slices.Insert(n.keys, idx, promo.key)
	n.children = slices.Insert(n.children, idx+1, promo.right)
	if n.size() <= page.PageSize {
		return nil, t.storeNode(n)
	}
	return t.splitInternal(n)
}

func (t *BTree) insertIntoLeaf(n *node, key types.Field, rid tuple.RecordID) (*promotion, error) {
	pos, found := n.searchLeaf(key)
	if found {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	n.keys = slices.Insert(n.keys, pos, key)
	n.rids = slices.Insert(n.rids, pos, rid)
	if n.size() <= page.PageSize {
		return nil, t.storeNode(n)
	}
	return t.splitLeaf(n)
}

// splitLeaf moves the upper half of a leaf into a new right sibling,
// links it into the leaf chain, and promotes the sibling's first key.
func (t *BTree) splitLeaf(n *node) (*promotion, error) {
	rightNo, err := t.allocNode()
	if err != nil {
		return nil, err
	}

	mid := len(n.keys) / 2
	right := newLeaf(rightNo)
	right.keys = slices.Clone(n.keys[mid:])
	right.rids = slices.Clone(n.rids[mid:])
	right.next = n.next

	n.keys = n.keys[:mid]
	n.rids = n.rids[:mid]
	n.next = rightNo

	if err := t.storeNode(right); err != nil {
		return nil, err
	}
	if err := t.storeNode(n); err != nil {
		return nil, err
	}
	return &promotion{key: right.keys[0], right: rightNo}, nil
}

// splitInternal moves the upper half of an internal node into a new
// right sibling. The middle key moves up to the parent rather than
// staying in either half.
func (t *BTree) splitInternal(n *node) (*promotion, error) {
	rightNo, err := t.allocNode()
	if err != nil {
		return nil, err
	}

	mid := len(n.keys) / 2
	midKey := n.keys[mid]

	right := newInternal(rightNo)
	right.keys = slices.Clone(n.keys[mid+1:])
	right.children = slices.Clone(n.children[mid+1:])

	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]

	if err := t.storeNode(right); err != nil {
		return nil, err
	}
	if err := t.storeNode(n); err != nil {
		return nil, err
	}
	return &promotion{key: midKey, right: rightNo}, nil
}

package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/page"
	"github.com/gopu-inc/gsql/pkg/tuple"
	"github.com/gopu-inc/gsql/pkg/types"
)

const (
	nodeTypeInternal byte = 0x01
	nodeTypeLeaf     byte = 0x02

	// Node header: [type:1][numKeys:2][nextLeaf:8]. Internal nodes keep
	// InvalidPageNumber in the nextLeaf field.
	nodeHeaderSize = 11

	// ridSize is the serialized size of a leaf value: [pageNo:8][slot:2].
	ridSize = 10

	// childSize is the serialized size of a child page reference.
	childSize = 8
)

// node is the in-memory form of one B+Tree page. Leaves hold sorted
// (key, RecordID) pairs and a next-leaf pointer forming the ascending
// leaf chain; internal nodes hold sorted separator keys and
// len(keys)+1 children. child[i] covers keys < keys[i]; the last child
// covers the rest.
type node struct {
	pageNo   primitives.PageNumber
	typ      byte
	next     primitives.PageNumber // leaf chain
	keys     []types.Field
	rids     []tuple.RecordID        // leaf only, parallel to keys
	children []primitives.PageNumber // internal only, len(keys)+1
}

func newLeaf(pageNo primitives.PageNumber) *node {
	return &node{pageNo: pageNo, typ: nodeTypeLeaf, next: primitives.InvalidPageNumber}
}

func newInternal(pageNo primitives.PageNumber) *node {
	return &node{pageNo: pageNo, typ: nodeTypeInternal, next: primitives.InvalidPageNumber}
}

func (n *node) isLeaf() bool {
	return n.typ == nodeTypeLeaf
}

// size returns the number of bytes serialize would produce.
func (n *node) size() int {
	s := nodeHeaderSize
	for _, k := range n.keys {
		s += keySize(k)
	}
	if n.isLeaf() {
		s += ridSize * len(n.rids)
	} else {
		s += childSize * len(n.children)
	}
	return s
}

// underflow reports whether the node is below the half-full invariant.
// The root is exempt; the caller checks that.
func (n *node) underflow() bool {
	return n.size() < page.PageSize/2
}

// serialize writes the node into the page's bytes.
func (n *node) serialize(p *page.Page) error {
	if n.size() > page.PageSize {
		return fmt.Errorf("internal: node %d overflows page (%d bytes)", n.pageNo, n.size())
	}

	data := p.Data()
	for i := range data {
		data[i] = 0
	}

	data[0] = n.typ
	binary.BigEndian.PutUint16(data[1:], uint16(len(n.keys)))
	binary.BigEndian.PutUint64(data[3:], uint64(n.next))

	off := nodeHeaderSize
	if n.isLeaf() {
		for i, k := range n.keys {
			w, err := encodeKey(data[off:], k)
			if err != nil {
				return err
			}
			off += w
			binary.BigEndian.PutUint64(data[off:], uint64(n.rids[i].PageNo))
			binary.BigEndian.PutUint16(data[off+8:], uint16(n.rids[i].Slot))
			off += ridSize
		}
		return nil
	}

	binary.BigEndian.PutUint64(data[off:], uint64(n.children[0]))
	off += childSize
	for i, k := range n.keys {
		w, err := encodeKey(data[off:], k)
		if err != nil {
			return err
		}
		off += w
		binary.BigEndian.PutUint64(data[off:], uint64(n.children[i+1]))
		off += childSize
	}
	return nil
}

// deserialize parses a node from the page's bytes.
func deserialize(p *page.Page) (*node, error) {
	data := p.Data()
	n := &node{pageNo: p.ID(), typ: data[0]}
	if n.typ != nodeTypeLeaf && n.typ != nodeTypeInternal {
		return nil, fmt.Errorf("page %d is not a B+Tree node (type %d)", p.ID(), data[0])
	}

	numKeys := int(binary.BigEndian.Uint16(data[1:]))
	n.next = primitives.PageNumber(binary.BigEndian.Uint64(data[3:]))

	off := nodeHeaderSize
	if n.isLeaf() {
		n.keys = make([]types.Field, 0, numKeys)
		n.rids = make([]tuple.RecordID, 0, numKeys)
		for i := 0; i < numKeys; i++ {
			k, w, err := decodeKey(data[off:])
			if err != nil {
				return nil, fmt.Errorf("page %d entry %d: %w", p.ID(), i, err)
			}
			off += w
			n.rids = append(n.rids, tuple.RecordID{
				PageNo: primitives.PageNumber(binary.BigEndian.Uint64(data[off:])),
				Slot:   primitives.SlotID(binary.BigEndian.Uint16(data[off+8:])),
			})
			off += ridSize
			n.keys = append(n.keys, k)
		}
		return n, nil
	}

	n.keys = make([]types.Field, 0, numKeys)
	n.children = make([]primitives.PageNumber, 0, numKeys+1)
	n.children = append(n.children, primitives.PageNumber(binary.BigEndian.Uint64(data[off:])))
	off += childSize
	for i := 0; i < numKeys; i++ {
		k, w, err := decodeKey(data[off:])
		if err != nil {
			return nil, fmt.Errorf("page %d separator %d: %w", p.ID(), i, err)
		}
		off += w
		n.keys = append(n.keys, k)
		n.children = append(n.children, primitives.PageNumber(binary.BigEndian.Uint64(data[off:])))
		off += childSize
	}
	return n, nil
}

// searchLeaf returns the position of key in a leaf and whether it is
// present; absent keys report their insertion point.
func (n *node) searchLeaf(key types.Field) (int, bool) {
	lo, hi := 0, len(n.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keyLess(n.keys[mid], key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(n.keys) && keyEqual(n.keys[lo], key)
}

// childIndex returns which child to descend into for key.
func (n *node) childIndex(key types.Field) int {
	lo, hi := 0, len(n.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keyLess(key, n.keys[mid]) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// Package memory provides the buffer pool: a bounded in-memory cache
// of pages that mediates every disk read and write.
package memory

import (
	"fmt"

	"github.com/gopu-inc/gsql/pkg/primitives"
	"github.com/gopu-inc/gsql/pkg/storage/page"
)

// node is a single entry in the doubly linked recency list.
type node struct {
	pageNo primitives.PageNumber
	page   *page.Page
	prev   *node
	next   *node
}

// lruCache tracks resident pages in least-recently-used order using a
// doubly linked list plus a map, giving O(1) lookup, touch, and
// removal. It refuses to grow past maxSize instead of evicting on its
// own; eviction policy belongs to the BufferPool.
//
// The cache is not synchronized; the owning BufferPool serializes
// access.
type lruCache struct {
	maxSize int
	cache   map[primitives.PageNumber]*node
	head    *node // dummy head, most recently used end
	tail    *node // dummy tail, least recently used end
}

func newLRUCache(maxSize int) *lruCache {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head
	return &lruCache{
		maxSize: maxSize,
		cache:   make(map[primitives.PageNumber]*node),
		head:    head,
		tail:    tail,
	}
}

func (c *lruCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *lruCache) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

// get returns the cached page and marks it most recently used.
func (c *lruCache) get(pageNo primitives.PageNumber) (*page.Page, bool) {
	if n, exists := c.cache[pageNo]; exists {
		c.removeNode(n)
		c.addToFront(n)
		return n.page, true
	}
	return nil, false
}

// peek returns the cached page without touching its recency.
func (c *lruCache) peek(pageNo primitives.PageNumber) (*page.Page, bool) {
	if n, exists := c.cache[pageNo]; exists {
		return n.page, true
	}
	return nil, false
}

// put inserts a page as most recently used. Inserting past maxSize is
// an error; the pool must evict first.
func (c *lruCache) put(pageNo primitives.PageNumber, p *page.Page) error {
	if n, exists := c.cache[pageNo]; exists {
		n.page = p
		c.removeNode(n)
		c.addToFront(n)
		return nil
	}

	if len(c.cache) >= c.maxSize {
		return fmt.Errorf("cache full, cannot add page %d", pageNo)
	}

	n := &node{pageNo: pageNo, page: p}
	c.cache[pageNo] = n
	c.addToFront(n)
	return nil
}

// remove drops a page from the cache if present.
func (c *lruCache) remove(pageNo primitives.PageNumber) {
	if n, exists := c.cache[pageNo]; exists {
		delete(c.cache, pageNo)
		c.removeNode(n)
	}
}

// size returns the number of resident pages.
func (c *lruCache) size() int {
	return len(c.cache)
}

// lruOrder returns resident page numbers, least recently used first.
func (c *lruCache) lruOrder() []primitives.PageNumber {
	pageNos := make([]primitives.PageNumber, 0, len(c.cache))
	for n := c.tail.prev; n != c.head; n = n.prev {
		pageNos = append(pageNos, n.pageNo)
	}
	return pageNos
}

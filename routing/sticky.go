package routing

import (
	"container/list"
	"sync"
)

// stickyTable maps work keys to their previously selected node. It only
// biases future selections toward continuity, so losing an entry under
// capacity pressure costs nothing but one potential re-selection — a
// capped LRU instead of a map that grows with every distinct work key.
type stickyTable struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List // front = most recently used
	entries map[string]*list.Element
}

type stickyEntry struct {
	workKey string
	nodeID  string
}

func newStickyTable(maxSize int) *stickyTable {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &stickyTable{
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get returns the node previously selected for workKey, if any.
func (t *stickyTable) Get(workKey string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elem, ok := t.entries[workKey]
	if !ok {
		return "", false
	}
	t.order.MoveToFront(elem)
	return elem.Value.(*stickyEntry).nodeID, true
}

// Put records the selection for workKey, evicting the least recently
// used entry when full.
func (t *stickyTable) Put(workKey, nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elem, ok := t.entries[workKey]; ok {
		elem.Value.(*stickyEntry).nodeID = nodeID
		t.order.MoveToFront(elem)
		return
	}
	if t.order.Len() >= t.maxSize {
		oldest := t.order.Back()
		if oldest != nil {
			t.order.Remove(oldest)
			delete(t.entries, oldest.Value.(*stickyEntry).workKey)
		}
	}
	t.entries[workKey] = t.order.PushFront(&stickyEntry{workKey: workKey, nodeID: nodeID})
}

// Len returns the number of tracked work keys.
func (t *stickyTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}

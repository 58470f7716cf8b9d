// Package dedupe maps idempotency keys to the job they first created.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Deduper remembers which job an idempotency key produced.
type Deduper interface {
	// Remember atomically binds key to jobID unless key is already bound.
	// It returns the bound job id and whether the key had been seen before.
	Remember(ctx context.Context, key, jobID string) (string, bool)

	// Forget unbinds key so it can be submitted again. It is used when the
	// job bound to key was never accepted.
	Forget(ctx context.Context, key string)

	Size() int64
}

// node is one entry of the insertion-ordered list.
type node struct {
	key   string
	jobID string
	next  *node
}

func (n *node) reset() {
	n.key, n.jobID, n.next = "", "", nil
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest once
// maxSize is reached. maxSize <= 0 disables the bound.
type inMemoryDeduper struct {
	mu       sync.Mutex
	keys     map[string]*node
	head     *node // oldest
	tail     *node // newest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.keys = make(map[string]*node)
	d.nodePool = sync.Pool{New: func() any { return &node{} }}
	return d
}

// Remember implements Deduper.
func (d *inMemoryDeduper) Remember(_ context.Context, key, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.keys[key]; ok {
		return n.jobID, true
	}
	if d.maxSize > 0 && len(d.keys) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.key, n.jobID = key, jobID
	if d.tail == nil {
		d.head = n
	} else {
		d.tail.next = n
	}
	d.tail = n
	d.keys[key] = n
	d.size.Add(1)
	return jobID, false
}

// Forget implements Deduper.
func (d *inMemoryDeduper) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, ok := d.keys[key]
	if !ok {
		return
	}
	var prev *node
	for cur := d.head; cur != nil && cur != target; cur = cur.next {
		prev = cur
	}
	d.unlink(prev, target)
}

// evictOldest drops the head. Caller holds mu.
func (d *inMemoryDeduper) evictOldest() {
	if d.head != nil {
		d.unlink(nil, d.head)
	}
}

// unlink removes n, whose predecessor is prev. Caller holds mu.
func (d *inMemoryDeduper) unlink(prev, n *node) {
	if prev == nil {
		d.head = n.next
	} else {
		prev.next = n.next
	}
	if d.tail == n {
		d.tail = prev
	}
	delete(d.keys, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the number of remembered keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

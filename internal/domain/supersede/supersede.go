// Package supersede tracks the latest in-flight request per session so a
// late result for an older request can be recognised and discarded.
package supersede

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Ticket identifies one request within a session.
type Ticket struct {
	Key string
	ID  uuid.UUID
}

// Tracker records the latest ticket per session key.
type Tracker interface {
	// Begin records a new ticket as the latest for key, superseding any
	// earlier one.
	Begin(ctx context.Context, key string) Ticket
	// IsCurrent reports whether t is still the latest ticket for its key.
	IsCurrent(ctx context.Context, t Ticket) bool
	// Finish releases t's key when t is still current and reports whether
	// it was. A superseded ticket leaves the newer entry in place.
	Finish(ctx context.Context, t Ticket) bool

	Size() int64
}

// node is one session entry in insertion order.
type node struct {
	key  string
	id   uuid.UUID
	prev *node
	next *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.key = ""
	n.id = uuid.Nil
	n.prev = nil
	n.next = nil
}

// inMemoryTracker keeps entries in a doubly linked list ordered by Begin
// time. When bounded, the oldest session is evicted first.
type inMemoryTracker struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int   // 0 or negative = unbounded
	size     atomic.Int64
	nodePool sync.Pool
	newID    func() uuid.UUID
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		maxSize: 10000,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.entries = make(map[string]*node)
	t.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return t
}

func (t *inMemoryTracker) Begin(_ context.Context, key string) Ticket {
	id := t.newID()

	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.entries[key]; ok {
		// Refresh: the session becomes the newest entry.
		t.unlink(n)
		n.id = id
		t.pushFront(n)
		return Ticket{Key: key, ID: id}
	}

	if t.maxSize > 0 && len(t.entries) >= t.maxSize {
		t.evictOldest()
	}
	n := t.nodePool.Get().(*node)
	n.key = key
	n.id = id
	t.pushFront(n)
	t.entries[key] = n
	t.size.Add(1)
	return Ticket{Key: key, ID: id}
}

func (t *inMemoryTracker) IsCurrent(_ context.Context, tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.entries[tk.Key]
	return ok && n.id == tk.ID
}

func (t *inMemoryTracker) Finish(_ context.Context, tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.entries[tk.Key]
	if !ok || n.id != tk.ID {
		return false
	}
	t.remove(n)
	return true
}

// Size returns the number of tracked sessions.
func (t *inMemoryTracker) Size() int64 {
	return t.size.Load()
}

// Must be called with t.mu held.
func (t *inMemoryTracker) pushFront(n *node) {
	n.prev = nil
	n.next = t.head
	if t.head != nil {
		t.head.prev = n
	}
	t.head = n
	if t.tail == nil {
		t.tail = n
	}
}

// Must be called with t.mu held.
func (t *inMemoryTracker) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		t.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		t.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// Must be called with t.mu held.
func (t *inMemoryTracker) remove(n *node) {
	t.unlink(n)
	delete(t.entries, n.key)
	n.reset()
	t.nodePool.Put(n)
	t.size.Add(-1)
}

// evictOldest drops the session that began longest ago. A request still
// in flight for it will see its ticket as superseded.
func (t *inMemoryTracker) evictOldest() {
	if t.tail != nil {
		t.remove(t.tail)
	}
}

package demo

import (
	"sync"

	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// DefaultHistorySize is the number of snapshots retained when none is configured.
const DefaultHistorySize = 720

// Ring is a fixed-size circular buffer of snapshots. It assigns each pushed
// snapshot an increasing ID, as the service's database would.
type Ring struct {
	mu     sync.RWMutex
	data   []model.Snapshot
	head   int
	count  int
	size   int
	nextID int
}

// NewRing creates a ring holding up to size snapshots.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Ring{
		data:   make([]model.Snapshot, size),
		size:   size,
		nextID: 1,
	}
}

// Push stores s, overwriting the oldest entry once full, and returns it
// with its assigned ID.
func (r *Ring) Push(s model.Snapshot) model.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = r.nextID
	r.nextID++
	r.data[r.head] = s
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	return s
}

// Latest returns the most recent snapshot.
func (r *Ring) Latest() (model.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return model.Snapshot{}, false
	}
	return r.data[(r.head-1+r.size)%r.size], true
}

// Window returns up to limit snapshots newest-first after skipping the skip
// most recent ones. The result is never nil.
func (r *Ring) Window(skip, limit int) []model.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if skip < 0 {
		skip = 0
	}
	n := r.count - skip
	if limit < n {
		n = limit
	}
	if n <= 0 {
		return []model.Snapshot{}
	}

	out := make([]model.Snapshot, n)
	// head points to the next write slot; the newest entry sits at head-1.
	newest := (r.head - 1 - skip + 2*r.size) % r.size
	for i := 0; i < n; i++ {
		out[i] = r.data[(newest-i+r.size)%r.size]
	}
	return out
}

// Len returns the number of stored snapshots.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

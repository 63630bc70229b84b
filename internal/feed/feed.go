// Package feed holds the bounded, newest-first list of enriched tokens.
package feed

import (
	"sync"

	"solana-token-feed/internal/domain"
)

// DefaultCapacity is the maximum number of tokens kept in the feed.
const DefaultCapacity = 50

// Feed is a newest-first list bounded to a fixed capacity. Mutations are
// serialized; readers receive copies.
type Feed struct {
	mu       sync.RWMutex
	items    []domain.TokenEvent
	capacity int
}

// New creates a feed holding up to capacity entries.
func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		items:    make([]domain.TokenEvent, 0, capacity),
		capacity: capacity,
	}
}

// Prepend inserts ev at the head and drops entries beyond capacity.
// Returns the feed length after insertion.
func (f *Feed) Prepend(ev domain.TokenEvent) int {
	ev = ev.Clone()

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) < f.capacity {
		f.items = append(f.items, domain.TokenEvent{})
	}
	copy(f.items[1:], f.items[:len(f.items)-1])
	f.items[0] = ev
	return len(f.items)
}

// Snapshot returns a deep copy of the feed, newest first.
func (f *Feed) Snapshot() []domain.TokenEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]domain.TokenEvent, len(f.items))
	for i, ev := range f.items {
		out[i] = ev.Clone()
	}
	return out
}

// Get returns the newest entry for mint.
func (f *Feed) Get(mint string) (domain.TokenEvent, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ev := range f.items {
		if ev.Mint == mint {
			return ev.Clone(), true
		}
	}
	return domain.TokenEvent{}, false
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Capacity returns the configured bound.
func (f *Feed) Capacity() int {
	return f.capacity
}

// Package activity holds the bounded, newest-first activity feed.
package activity

import (
	"sync"
	"time"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/idhash"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 20

// Feed is a fixed-capacity ring buffer of activity entries.
// Appending to a full feed evicts the oldest entry.
type Feed struct {
	mu       sync.RWMutex
	entries  []domain.ActivityEntry
	next     int // slot the next append writes to
	size     int
	capacity int
	seq      uint64 // appends so far, feeds entry ids
}

// NewFeed creates a feed holding at most capacity entries.
// Uses DefaultCapacity if capacity <= 0.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		entries:  make([]domain.ActivityEntry, capacity),
		capacity: capacity,
	}
}

// Record builds an entry with a deterministic id and appends it.
func (f *Feed) Record(category domain.ActivityCategory, recordID, description string, at time.Time) domain.ActivityEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := domain.ActivityEntry{
		ID:          idhash.ComputeActivityID(category, recordID, at.UnixMilli(), f.seq),
		Timestamp:   at.UTC(),
		Description: description,
		Category:    category,
		RecordID:    recordID,
	}
	f.append(e)
	return e
}

// Append adds an existing entry as the newest one.
func (f *Feed) Append(e domain.ActivityEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.append(e)
}

func (f *Feed) append(e domain.ActivityEntry) {
	f.seq++
	f.entries[f.next] = e
	f.next = (f.next + 1) % f.capacity
	if f.size < f.capacity {
		f.size++
	}
}

// Entries returns a copy of the feed, newest first.
func (f *Feed) Entries() []domain.ActivityEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]domain.ActivityEntry, 0, f.size)
	for i := 1; i <= f.size; i++ {
		idx := (f.next - i + f.capacity) % f.capacity
		out = append(out, f.entries[idx])
	}
	return out
}

// Len returns the number of entries currently held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}

// Cap returns the feed capacity.
func (f *Feed) Cap() int {
	return f.capacity
}

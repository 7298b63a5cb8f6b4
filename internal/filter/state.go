// Package filter holds the active cross-filter selection.
package filter

import (
	"fmt"
	"sync"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/storage"
)

// State is the active filter selection. Every setter replaces the whole
// FilterState under the lock, so readers never observe a half-applied change.
type State struct {
	mu      sync.RWMutex
	current domain.FilterState
	version uint64
}

// NewState creates an empty selection.
func NewState() *State {
	return &State{}
}

// Current returns the active selection.
func (s *State) Current() domain.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version increases by one on every change that alters the selection.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the selection and its version read together.
func (s *State) Snapshot() (domain.FilterState, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.version
}

// Set sets one dimension. Values are matched case-insensitively against the
// dimension's enumeration. Returns ErrMalformedFilterValue and leaves the
// selection unchanged if the dimension or value is unknown.
func (s *State) Set(dim domain.Dimension, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := with(s.current, dim, value)
	if err != nil {
		return err
	}
	s.swap(next)
	return nil
}

// Clear unsets one dimension.
func (s *State) Clear(dim domain.Dimension) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	switch dim {
	case domain.DimensionBreed:
		next.Breed = ""
	case domain.DimensionHabitat:
		next.Habitat = ""
	case domain.DimensionStatus:
		next.Status = ""
	default:
		return fmt.Errorf("clear %q: unknown dimension: %w", dim, storage.ErrMalformedFilterValue)
	}
	s.swap(next)
	return nil
}

// Replace validates every dimension of f and installs it as one change.
func (s *State) Replace(f domain.FilterState) error {
	next := domain.FilterState{}
	var err error
	for _, dim := range domain.Dimensions {
		if v := f.Get(dim); v != "" {
			if next, err = with(next, dim, v); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(next)
	return nil
}

// Reset clears every dimension.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(domain.FilterState{})
}

func (s *State) swap(next domain.FilterState) {
	if next == s.current {
		return
	}
	s.current = next
	s.version++
}

func with(f domain.FilterState, dim domain.Dimension, value string) (domain.FilterState, error) {
	switch dim {
	case domain.DimensionBreed:
		b, ok := domain.ParseBreed(value)
		if !ok {
			return f, fmt.Errorf("breed %q: %w", value, storage.ErrMalformedFilterValue)
		}
		f.Breed = b
	case domain.DimensionHabitat:
		h, ok := domain.ParseHabitat(value)
		if !ok {
			return f, fmt.Errorf("habitat %q: %w", value, storage.ErrMalformedFilterValue)
		}
		f.Habitat = h
	case domain.DimensionStatus:
		st, ok := domain.ParseStatus(value)
		if !ok {
			return f, fmt.Errorf("status %q: %w", value, storage.ErrMalformedFilterValue)
		}
		f.Status = st
	default:
		return f, fmt.Errorf("dimension %q: %w", dim, storage.ErrMalformedFilterValue)
	}
	return f, nil
}

// Apply returns the records matching f, preserving their relative order.
// The input slice is not modified.
func Apply(f domain.FilterState, records []domain.Unicorn) []domain.Unicorn {
	out := make([]domain.Unicorn, 0, len(records))
	for i := range records {
		if f.Matches(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Apply filters records with the active selection.
func (s *State) Apply(records []domain.Unicorn) []domain.Unicorn {
	return Apply(s.Current(), records)
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/storage"
)

// state is the mutable content of a RecordStore.
type state struct {
	unicorns []domain.Unicorn
	index    map[string]int // unicorn id -> position in unicorns
	trades   []domain.TradeRecord
	tradeIDs map[string]struct{}
	trend    []domain.TrendPoint
	asOf     time.Time
}

func newState() *state {
	return &state{
		index:    make(map[string]int),
		tradeIDs: make(map[string]struct{}),
	}
}

func (st *state) clone() *state {
	c := &state{
		unicorns: make([]domain.Unicorn, len(st.unicorns)),
		index:    make(map[string]int, len(st.index)),
		trades:   make([]domain.TradeRecord, len(st.trades)),
		tradeIDs: make(map[string]struct{}, len(st.tradeIDs)),
		trend:    make([]domain.TrendPoint, len(st.trend)),
		asOf:     st.asOf,
	}
	copy(c.unicorns, st.unicorns)
	copy(c.trades, st.trades)
	copy(c.trend, st.trend)
	for k, v := range st.index {
		c.index[k] = v
	}
	for k := range st.tradeIDs {
		c.tradeIDs[k] = struct{}{}
	}
	return c
}

func (st *state) advanceClock(t time.Time) {
	if t.After(st.asOf) {
		st.asOf = t
	}
}

// RecordStore is an in-memory implementation of storage.RecordStore.
// Snapshots are copies; mutations never leak into a snapshot already handed out.
type RecordStore struct {
	mu      sync.RWMutex
	st      *state
	version uint64
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{st: newState()}
}

// Insert adds a new unicorn. Returns ErrDuplicateIdentifier if the id exists.
func (s *RecordStore) Insert(_ context.Context, u *domain.Unicorn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{st: s.st}
	if err := tx.Insert(u); err != nil {
		return err
	}
	s.version++
	return nil
}

// UpdateStatus moves a unicorn forward in its lifecycle.
func (s *RecordStore) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{st: s.st}
	if err := tx.UpdateStatus(id, status); err != nil {
		return err
	}
	s.version++
	return nil
}

// AppendTrade appends a trade. Returns ErrDanglingReference if the unicorn is unknown.
func (s *RecordStore) AppendTrade(_ context.Context, t *domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{st: s.st}
	if err := tx.AppendTrade(t); err != nil {
		return err
	}
	s.version++
	return nil
}

// SetTrend replaces the trend series.
func (s *RecordStore) SetTrend(_ context.Context, points []domain.TrendPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{st: s.st}
	if err := tx.SetTrend(points); err != nil {
		return err
	}
	s.version++
	return nil
}

// Update runs fn against a cloned state and commits it only if fn returns nil.
// The whole batch counts as one version bump.
func (s *RecordStore) Update(_ context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{st: s.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	s.version++
	return nil
}

// Version returns the number of committed mutations.
func (s *RecordStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy of the current state.
func (s *RecordStore) Snapshot() *storage.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unicorns := make([]domain.Unicorn, len(s.st.unicorns))
	copy(unicorns, s.st.unicorns)
	trades := make([]domain.TradeRecord, len(s.st.trades))
	copy(trades, s.st.trades)
	trend := make([]domain.TrendPoint, len(s.st.trend))
	copy(trend, s.st.trend)

	return storage.NewSnapshot(s.version, s.st.asOf, unicorns, trades, trend)
}

// Tx is a set of mutations applied through RecordStore.Update.
// Each operation validates fully before it touches state.
type Tx struct {
	st *state
}

// Insert adds a unicorn within the transaction.
func (tx *Tx) Insert(u *domain.Unicorn) error {
	if err := validateUnicorn(u); err != nil {
		return err
	}
	if _, exists := tx.st.index[u.ID]; exists {
		return fmt.Errorf("insert %s: %w", u.ID, storage.ErrDuplicateIdentifier)
	}

	c := *u
	c.RegisteredAt = c.RegisteredAt.UTC()
	tx.st.index[c.ID] = len(tx.st.unicorns)
	tx.st.unicorns = append(tx.st.unicorns, c)
	tx.st.advanceClock(c.RegisteredAt)
	return nil
}

// UpdateStatus changes a unicorn's status within the transaction.
func (tx *Tx) UpdateStatus(id string, status domain.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("update %s: status %q: %w", id, status, storage.ErrInvalidInput)
	}
	i, exists := tx.st.index[id]
	if !exists {
		return fmt.Errorf("update %s: %w", id, storage.ErrNotFound)
	}
	current := tx.st.unicorns[i].Status
	if !current.CanTransitionTo(status) {
		return fmt.Errorf("update %s: %s -> %s: %w", id, current, status, storage.ErrInvalidTransition)
	}

	tx.st.unicorns[i].Status = status
	return nil
}

// AppendTrade appends a trade within the transaction.
func (tx *Tx) AppendTrade(t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return fmt.Errorf("append trade: missing trade id: %w", storage.ErrInvalidInput)
	}
	if t.Value.IsNegative() {
		return fmt.Errorf("append trade %s: negative value: %w", t.TradeID, storage.ErrInvalidInput)
	}
	if t.CompletedAt.IsZero() {
		return fmt.Errorf("append trade %s: missing completion time: %w", t.TradeID, storage.ErrInvalidInput)
	}
	if _, exists := tx.st.index[t.UnicornID]; !exists {
		return fmt.Errorf("append trade %s: unicorn %q: %w", t.TradeID, t.UnicornID, storage.ErrDanglingReference)
	}
	if _, exists := tx.st.tradeIDs[t.TradeID]; exists {
		return fmt.Errorf("append trade %s: %w", t.TradeID, storage.ErrDuplicateIdentifier)
	}

	c := *t
	c.CompletedAt = c.CompletedAt.UTC()
	tx.st.tradeIDs[c.TradeID] = struct{}{}
	tx.st.trades = append(tx.st.trades, c)
	tx.st.advanceClock(c.CompletedAt)
	return nil
}

// SetTrend replaces the trend series within the transaction.
func (tx *Tx) SetTrend(points []domain.TrendPoint) error {
	for i, p := range points {
		if p.Label == "" || p.Value < 0 {
			return fmt.Errorf("set trend: point %d: %w", i, storage.ErrInvalidInput)
		}
	}
	trend := make([]domain.TrendPoint, len(points))
	copy(trend, points)
	tx.st.trend = trend
	return nil
}

// SetReferenceTime sets the lower bound of the data clock, typically the
// generation time of a synthetic dataset.
func (tx *Tx) SetReferenceTime(t time.Time) {
	tx.st.advanceClock(t.UTC())
}

func validateUnicorn(u *domain.Unicorn) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("insert: missing id: %w", storage.ErrInvalidInput)
	}
	switch {
	case u.Name == "":
		return fmt.Errorf("insert %s: missing name: %w", u.ID, storage.ErrInvalidInput)
	case !u.Breed.IsValid():
		return fmt.Errorf("insert %s: breed %q: %w", u.ID, u.Breed, storage.ErrInvalidInput)
	case !u.Habitat.IsValid():
		return fmt.Errorf("insert %s: habitat %q: %w", u.ID, u.Habitat, storage.ErrInvalidInput)
	case !u.Region.IsValid():
		return fmt.Errorf("insert %s: region %q: %w", u.ID, u.Region, storage.ErrInvalidInput)
	case !u.Status.IsValid():
		return fmt.Errorf("insert %s: status %q: %w", u.ID, u.Status, storage.ErrInvalidInput)
	case u.Value.IsNegative():
		return fmt.Errorf("insert %s: negative value: %w", u.ID, storage.ErrInvalidInput)
	case u.RegisteredAt.IsZero():
		return fmt.Errorf("insert %s: missing registration time: %w", u.ID, storage.ErrInvalidInput)
	}
	return nil
}

var _ storage.RecordStore = (*RecordStore)(nil)

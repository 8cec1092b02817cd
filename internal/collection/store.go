// Package collection keeps a per-tenant in-memory snapshot of the instrument
// inventory. Each tenant entry is an explicit state machine
// (idle -> loading -> loaded | failed): a Snapshot call that arrives while a
// fetch is already in flight waits on the same pending fetch instead of
// issuing a second repository query. The loaded snapshot also backs the
// synchronous previous-state lookup the instrument service does before
// running status side effects.
package collection

import (
	"context"
	"sync"
	"time"

	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
)

type entryState int

const (
	stateIdle entryState = iota
	stateLoading
	stateLoaded
	stateFailed
)

type entry struct {
	state    entryState
	items    map[uuid.UUID]*models.Instrument
	order    []*models.Instrument
	err      error
	loadedAt time.Time
	pending  chan struct{} // closed when the in-flight fetch settles
}

// InstrumentStore caches one inventory snapshot per tenant.
type InstrumentStore struct {
	mu      sync.Mutex
	repo    repositories.InstrumentRepository
	ttl     time.Duration
	entries map[uuid.UUID]*entry
}

// DefaultSnapshotTTL bounds how long a loaded snapshot is served without a
// refresh. Mutations through the instrument service keep the snapshot in sync
// eagerly; the TTL only covers writes that bypass this process.
const DefaultSnapshotTTL = 5 * time.Minute

func NewInstrumentStore(repo repositories.InstrumentRepository, ttl time.Duration) *InstrumentStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &InstrumentStore{
		repo:    repo,
		ttl:     ttl,
		entries: make(map[uuid.UUID]*entry),
	}
}

// Snapshot returns the tenant's full inventory, fetching it at most once no
// matter how many callers arrive while the fetch is in flight.
func (s *InstrumentStore) Snapshot(ctx context.Context, tenantID uuid.UUID) ([]*models.Instrument, error) {
	s.mu.Lock()
	e, ok := s.entries[tenantID]
	if !ok {
		e = &entry{state: stateIdle}
		s.entries[tenantID] = e
	}

	switch e.state {
	case stateLoaded:
		if time.Since(e.loadedAt) < s.ttl {
			snapshot := make([]*models.Instrument, len(e.order))
			copy(snapshot, e.order)
			s.mu.Unlock()
			return snapshot, nil
		}
		// Stale, fall through to a fresh load.
	case stateLoading:
		pending := e.pending
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-pending:
		}
		s.mu.Lock()
		if e.state == stateLoaded {
			snapshot := make([]*models.Instrument, len(e.order))
			copy(snapshot, e.order)
			s.mu.Unlock()
			return snapshot, nil
		}
		err := e.err
		s.mu.Unlock()
		return nil, err
	}

	// Idle, failed or stale: this caller performs the fetch.
	pending := make(chan struct{})
	e.state = stateLoading
	e.pending = pending
	e.err = nil
	s.mu.Unlock()

	instruments, err := s.repo.ListAll(ctx, tenantID)

	s.mu.Lock()
	if err != nil {
		e.state = stateFailed
		e.err = err
	} else {
		e.state = stateLoaded
		e.loadedAt = time.Now()
		e.order = instruments
		e.items = make(map[uuid.UUID]*models.Instrument, len(instruments))
		for _, instrument := range instruments {
			e.items[instrument.ID] = instrument
		}
	}
	close(pending)
	e.pending = nil
	snapshot := make([]*models.Instrument, len(e.order))
	copy(snapshot, e.order)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Current is the synchronous previous-state lookup. It never fetches: when no
// snapshot is loaded the caller gets nil and skips its status comparison.
func (s *InstrumentStore) Current(tenantID, id uuid.UUID) *models.Instrument {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tenantID]
	if !ok || e.state != stateLoaded {
		return nil
	}
	return e.items[id]
}

// MarkUpdated replaces (or inserts) one instrument in the loaded snapshot so
// follow-up edits see the fresh state without a refetch.
func (s *InstrumentStore) MarkUpdated(tenantID uuid.UUID, instrument *models.Instrument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tenantID]
	if !ok || e.state != stateLoaded {
		return
	}
	if _, exists := e.items[instrument.ID]; !exists {
		e.order = append([]*models.Instrument{instrument}, e.order...)
	} else {
		for i, existing := range e.order {
			if existing.ID == instrument.ID {
				e.order[i] = instrument
				break
			}
		}
	}
	e.items[instrument.ID] = instrument
}

// Remove drops one instrument from the loaded snapshot.
func (s *InstrumentStore) Remove(tenantID, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tenantID]
	if !ok || e.state != stateLoaded {
		return
	}
	if _, exists := e.items[id]; !exists {
		return
	}
	delete(e.items, id)
	for i, existing := range e.order {
		if existing.ID == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Invalidate puts the tenant entry back to idle; the next Snapshot refetches.
func (s *InstrumentStore) Invalidate(tenantID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tenantID]
	if !ok || e.state == stateLoading {
		// An in-flight fetch settles on its own; callers after it will
		// see the fresh data anyway.
		return
	}
	delete(s.entries, tenantID)
}

// Package memstore keeps presence and the waiting pool in process memory behind one lock.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
	"github.com/beka-birhanu/reelrite-rendezvous/service/i"
	"github.com/benbjohnson/clock"
)

var _ i.RendezvousStore = (*Store)(nil)

// Store is the in-memory RendezvousStore. All state is lost on restart.
type Store struct {
	presence *PresenceRegistry
	pool     *WaitingPool
	clock    clock.Clock
	mu       sync.RWMutex
}

// NewStore returns an empty store reading time from clk; a nil clk uses the wall clock.
func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		presence: NewPresenceRegistry(),
		pool:     NewWaitingPool(),
		clock:    clk,
	}
}

// Match implements i.RendezvousStore.
func (s *Store) Match(_ context.Context, id domain.ClientID) (domain.MatchResult, error) {
	if id == "" {
		return domain.MatchResult{}, domain.ErrPeerIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.presence.Touch(id, s.clock.Now())
	s.pool.Remove(id)

	if partner, ok := s.pool.PopOldest(); ok {
		return domain.Paired(partner), nil
	}

	s.pool.Enqueue(id)
	return domain.Waiting(), nil
}

// Touch implements i.RendezvousStore.
func (s *Store) Touch(_ context.Context, id domain.ClientID) error {
	if id == "" {
		return domain.ErrPeerIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence.Touch(id, s.clock.Now())
	return nil
}

// Leave implements i.RendezvousStore.
func (s *Store) Leave(_ context.Context, id domain.ClientID) error {
	if id == "" {
		return domain.ErrPeerIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.Remove(id)
	return nil
}

// Sweep implements i.RendezvousStore. Candidates are collected under the read
// lock and re-checked under the write lock, so a client touched in between is kept.
func (s *Store) Sweep(_ context.Context, threshold time.Duration) ([]domain.ClientID, error) {
	return s.evict(s.staleCandidates(threshold), threshold), nil
}

func (s *Store) staleCandidates(threshold time.Duration) []domain.ClientID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presence.StaleIDs(s.clock.Now(), threshold)
}

func (s *Store) evict(candidates []domain.ClientID, threshold time.Duration) []domain.ClientID {
	if len(candidates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := make([]domain.ClientID, 0, len(candidates))
	for _, id := range candidates {
		if !s.presence.IsStale(id, now, threshold) {
			continue
		}
		s.presence.Evict(id)
		s.pool.Remove(id)
		evicted = append(evicted, id)
	}
	return evicted
}

// Online implements i.RendezvousStore.
func (s *Store) Online(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presence.Size(), nil
}

// Waiting returns the waiting clients, oldest first.
func (s *Store) Waiting() []domain.ClientID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Snapshot()
}

// Entry returns the presence entry for id.
func (s *Store) Entry(id domain.ClientID) (domain.PresenceEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presence.Entry(id)
}

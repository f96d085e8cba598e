package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/pkg/types"
)

// AgentPosition is the last reported position for one agent.
type AgentPosition struct {
	AgentID    uuid.UUID      `json:"agentId"`
	Coordinate types.GeoPoint `json:"coordinate"`
	ReportedAt time.Time      `json:"reportedAt"`
}

// Store keeps the latest known position per agent in memory. Writes replace
// the previous entry unconditionally: last write wins by arrival order, not
// by comparing timestamps.
type Store struct {
	mu        sync.RWMutex
	positions map[uuid.UUID]AgentPosition
}

// NewStore builds an empty position store.
func NewStore() *Store {
	return &Store{positions: make(map[uuid.UUID]AgentPosition)}
}

// Upsert records the position for the agent, replacing any previous entry.
func (s *Store) Upsert(agentID uuid.UUID, coord types.GeoPoint, reportedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[agentID] = AgentPosition{
		AgentID:    agentID,
		Coordinate: coord,
		ReportedAt: reportedAt,
	}
}

// Get returns the last known position for the agent.
func (s *Store) Get(agentID uuid.UUID) (AgentPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[agentID]
	return pos, ok
}

// Snapshot returns a point-in-time copy of every known position.
func (s *Store) Snapshot() map[uuid.UUID]AgentPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]AgentPosition, len(s.positions))
	for id, pos := range s.positions {
		out[id] = pos
	}
	return out
}

// PruneOlderThan drops entries reported before the cutoff and returns how
// many were removed.
func (s *Store) PruneOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, pos := range s.positions {
		if pos.ReportedAt.Before(cutoff) {
			delete(s.positions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked agents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

package tracking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/metrics"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

// AgentDirectory resolves agents when validating location reports.
type AgentDirectory interface {
	FindAgent(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)
	UpdateAgentLocation(ctx context.Context, agentID uuid.UUID, coord types.GeoPoint, reportedAt time.Time) error
}

// Service validates incoming location reports, caches them, and fans them
// out to live subscribers.
type Service struct {
	store   *Store
	hub     *Hub
	agents  AgentDirectory
	metrics *metrics.DispatchMetrics
	logg    *logger.Logger
}

// ServiceParams configure the tracking service.
type ServiceParams struct {
	Store   *Store
	Hub     *Hub
	Agents  AgentDirectory
	Metrics *metrics.DispatchMetrics
	Logger  *logger.Logger
}

// NewService builds the tracking service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("tracking store required")
	}
	if params.Hub == nil {
		return nil, fmt.Errorf("tracking hub required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agent directory required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		store:   params.Store,
		hub:     params.Hub,
		agents:  params.Agents,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Report validates and records one position update. Invalid coordinates are
// rejected without touching any state.
func (s *Service) Report(ctx context.Context, agentID uuid.UUID, coord types.GeoPoint, reportedAt time.Time) error {
	if agentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	if !coord.Valid() {
		s.metrics.IncLocationReport("invalid")
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinate")
	}

	agent, err := s.agents.FindAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncLocationReport("unknown_agent")
			return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}
	if agent.Status != enums.AgentStatusActive {
		s.metrics.IncLocationReport("inactive_agent")
		return pkgerrors.New(pkgerrors.CodeStateConflict, "agent not active")
	}

	if reportedAt.IsZero() {
		reportedAt = time.Now().UTC()
	}

	if err := s.agents.UpdateAgentLocation(ctx, agentID, coord, reportedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist agent location")
	}

	s.store.Upsert(agentID, coord, reportedAt)
	s.hub.Publish(Event{AgentID: agentID, Coordinate: coord, ReportedAt: reportedAt})
	s.metrics.IncLocationReport("accepted")

	logCtx := s.logg.WithAgentID(ctx, agentID.String())
	s.logg.Info(logCtx, "location report accepted")
	return nil
}

// Snapshot returns the current positions ordered by agent id.
func (s *Service) Snapshot() []AgentPosition {
	byID := s.store.Snapshot()
	out := make([]AgentPosition, 0, len(byID))
	for _, pos := range byID {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AgentID.String() < out[j].AgentID.String()
	})
	return out
}

// Position returns the last known position for one agent.
func (s *Service) Position(agentID uuid.UUID) (AgentPosition, bool) {
	return s.store.Get(agentID)
}

// Subscribe registers a live listener, optionally filtered by agent ids.
func (s *Service) Subscribe(agentIDs ...uuid.UUID) *Subscription {
	return s.hub.Subscribe(agentIDs...)
}

// PruneOlderThan evicts cached positions older than the cutoff.
func (s *Service) PruneOlderThan(cutoff time.Time) int {
	return s.store.PruneOlderThan(cutoff)
}

// PruneLoop evicts stale cached positions until the context is canceled.
// Ticking at a quarter of the window keeps the worst-case lifetime of a
// silent agent's entry near the window itself. A non-positive window
// disables pruning.
func (s *Service) PruneLoop(ctx context.Context, staleAfter time.Duration) {
	if staleAfter <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval(staleAfter))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := s.PruneOlderThan(time.Now().UTC().Add(-staleAfter)); pruned > 0 {
				s.logg.Info(s.logg.WithField(ctx, "pruned", pruned), "stale positions evicted")
			}
		}
	}
}

func pruneInterval(staleAfter time.Duration) time.Duration {
	interval := staleAfter / 4
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return interval
}

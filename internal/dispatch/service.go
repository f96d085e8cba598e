package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/internal/orders"
	"github.com/quickbites/dispatch-backend/internal/tracking"
	"github.com/quickbites/dispatch-backend/pkg/config"
	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/metrics"
	"github.com/quickbites/dispatch-backend/pkg/outbox"
	"github.com/quickbites/dispatch-backend/pkg/outbox/payloads"
)

// PositionSource exposes the live position cache.
type PositionSource interface {
	Snapshot() []tracking.AgentPosition
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// AgentRoster resolves which agents are cleared for dispatch.
type AgentRoster interface {
	ListByStatus(ctx context.Context, status enums.AgentStatus) ([]models.Agent, error)
}

// AssignmentResult reports who won an order and at what distance.
type AssignmentResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	AgentID    uuid.UUID `json:"agent_id"`
	DistanceKm float64   `json:"distance_km"`
	Workload   int       `json:"workload"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Service assigns pending orders to delivery agents.
type Service struct {
	orders           orders.Repository
	agents           AgentRoster
	tx               txRunner
	outbox           outboxPublisher
	positions        PositionSource
	maxRadiusKm      float64
	workloadStatuses []enums.OrderStatus
	timeout          time.Duration
	metrics          *metrics.DispatchMetrics
	logg             *logger.Logger
}

// ServiceParams configure the dispatch service.
type ServiceParams struct {
	Orders    orders.Repository
	Agents    AgentRoster
	Tx        txRunner
	Outbox    outboxPublisher
	Positions PositionSource
	Config    config.DispatchConfig
	Metrics   *metrics.DispatchMetrics
	Logger    *logger.Logger
}

// NewService builds the dispatch service. Workload statuses from config are
// validated here so a bad value fails at startup, not per request.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agent roster required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Positions == nil {
		return nil, fmt.Errorf("position source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.MaxRadiusKm <= 0 {
		return nil, fmt.Errorf("max radius must be positive")
	}

	statuses := make([]enums.OrderStatus, 0, len(params.Config.WorkloadStatuses))
	for _, raw := range params.Config.NormalizedWorkloadStatuses() {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("workload statuses: %w", err)
		}
		statuses = append(statuses, status)
	}
	if len(statuses) == 0 {
		statuses = enums.DefaultActiveOrderStatuses
	}

	return &Service{
		orders:           params.Orders,
		agents:           params.Agents,
		tx:               params.Tx,
		outbox:           params.Outbox,
		positions:        params.Positions,
		maxRadiusKm:      params.Config.MaxRadiusKm,
		workloadStatuses: statuses,
		timeout:          params.Config.CollaboratorTimeout,
		metrics:          params.Metrics,
		logg:             params.Logger,
	}, nil
}

// Assign picks the best available agent for a pending order and commits the
// assignment. Losing a concurrent claim surfaces as a state conflict.
func (s *Service) Assign(ctx context.Context, orderID uuid.UUID) (*AssignmentResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	// One deadline bounds every collaborator call, including the claim
	// transaction.
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPending || order.AgentID != nil {
		s.metrics.IncAssignment("already_assigned")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already assigned")
	}

	restaurant := order.Restaurant
	if restaurant == nil {
		restaurant, err = s.orders.FindRestaurant(ctx, order.RestaurantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
		}
	}
	if restaurant.Location == nil {
		s.metrics.IncAssignment("no_pickup_location")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "restaurant location unavailable")
	}

	snapshot, err := s.dispatchablePositions(ctx)
	if err != nil {
		return nil, err
	}
	if len(snapshot) == 0 {
		s.metrics.IncAssignment("no_agents")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no delivery agents available").
			WithDetails(map[string]any{"radius_km": s.maxRadiusKm})
	}

	candidates, err := s.buildCandidates(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	selection, ok := Select(*restaurant.Location, candidates, s.maxRadiusKm)
	if !ok {
		s.metrics.IncAssignment("none_in_radius")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no delivery agents within radius").
			WithDetails(map[string]any{"radius_km": s.maxRadiusKm})
	}

	assignedAt := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		won, err := repo.ClaimOrder(ctx, orderID, selection.AgentID, assignedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already assigned")
		}

		assignment := &models.OrderAssignment{
			OrderID:    orderID,
			AgentID:    selection.AgentID,
			DistanceKm: selection.DistanceKm,
			AssignedAt: assignedAt,
			Active:     true,
		}
		if err := repo.CreateAssignment(ctx, assignment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record assignment")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderAssigned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Version:       1,
			Data: payloads.OrderAssignedEvent{
				OrderID:      orderID,
				RestaurantID: order.RestaurantID,
				AgentID:      selection.AgentID,
				DistanceKm:   selection.DistanceKm,
				AssignedAt:   assignedAt,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			s.metrics.IncAssignment("lost_race")
			return nil, err
		}
		s.metrics.IncAssignment("error")
		return nil, err
	}

	s.metrics.IncAssignment("assigned")
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithAgentID(logCtx, selection.AgentID.String())
	s.logg.Info(logCtx, "order assigned")

	return &AssignmentResult{
		OrderID:    orderID,
		AgentID:    selection.AgentID,
		DistanceKm: selection.DistanceKm,
		Workload:   selection.Workload,
		AssignedAt: assignedAt,
	}, nil
}

// dispatchablePositions intersects the live position cache with the agents
// currently in Active status. A cached position alone is not enough; the row
// is the authority on whether the agent may take orders.
func (s *Service) dispatchablePositions(ctx context.Context) ([]tracking.AgentPosition, error) {
	snapshot := s.positions.Snapshot()
	if len(snapshot) == 0 {
		return nil, nil
	}

	active, err := s.agents.ListByStatus(ctx, enums.AgentStatusActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active agents")
	}
	activeIDs := make(map[uuid.UUID]struct{}, len(active))
	for _, agent := range active {
		activeIDs[agent.ID] = struct{}{}
	}

	filtered := make([]tracking.AgentPosition, 0, len(snapshot))
	for _, position := range snapshot {
		if _, ok := activeIDs[position.AgentID]; ok {
			filtered = append(filtered, position)
		}
	}
	return filtered, nil
}

func (s *Service) buildCandidates(ctx context.Context, snapshot []tracking.AgentPosition) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(snapshot))
	for _, position := range snapshot {
		count, err := s.orders.CountActiveForAgent(ctx, position.AgentID, s.workloadStatuses)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count agent workload")
		}
		candidates = append(candidates, Candidate{
			AgentID:  position.AgentID,
			Position: position.Coordinate,
			Workload: int(count),
		})
	}
	return candidates, nil
}

package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/outbox"
	"github.com/quickbites/dispatch-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service covers agent registration and moderation.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Agent, error)
	Approve(ctx context.Context, input ModerationInput) error
	Reject(ctx context.Context, input ModerationInput) error
	Find(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)
	ListActive(ctx context.Context) ([]models.Agent, error)
	ListPending(ctx context.Context) ([]models.Agent, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// RegisterInput carries the fields accepted at registration time.
type RegisterInput struct {
	Name        string
	Phone       *string
	Email       *string
	VehicleType *string
	Zones       []string
}

// ModerationInput identifies the agent and the admin making the decision.
type ModerationInput struct {
	AgentID     uuid.UUID
	ActorUserID uuid.UUID
	Reason      string
}

// NewService builds the agents service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, logg: logg}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Agent, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent name required")
	}

	agent := &models.Agent{
		Name:        name,
		Phone:       input.Phone,
		Email:       input.Email,
		Status:      enums.AgentStatusPending,
		VehicleType: input.VehicleType,
		Zones:       input.Zones,
	}
	created, err := s.repo.CreateAgent(ctx, agent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create agent")
	}

	logCtx := s.logg.WithAgentID(ctx, created.ID.String())
	s.logg.Info(logCtx, "agent registered")
	return created, nil
}

func (s *service) Approve(ctx context.Context, input ModerationInput) error {
	return s.moderate(ctx, input, enums.AgentStatusActive)
}

func (s *service) Reject(ctx context.Context, input ModerationInput) error {
	return s.moderate(ctx, input, enums.AgentStatusRejected)
}

func (s *service) moderate(ctx context.Context, input ModerationInput, target enums.AgentStatus) error {
	if input.AgentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		agent, err := repo.FindAgent(ctx, input.AgentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
		}
		if agent.Status == target {
			return nil
		}
		if agent.Status != enums.AgentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "agent already moderated")
		}

		previous := agent.Status
		moderatedAt := time.Now().UTC()
		if err := repo.UpdateAgentStatus(ctx, agent.ID, target, moderatedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update agent status")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAgentStatusChanged,
			AggregateType: enums.AggregateAgent,
			AggregateID:   agent.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID),
			Data: payloads.AgentStatusChangedEvent{
				AgentID:        agent.ID,
				PreviousStatus: previous,
				Status:         target,
				ChangedAt:      moderatedAt,
				Reason:         input.Reason,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) Find(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	agent, err := s.repo.FindAgent(ctx, agentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent")
	}
	return agent, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.AgentStatusActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active agents")
	}
	return rows, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.AgentStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending agents")
	}
	return rows, nil
}

func buildActor(userID uuid.UUID) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: "admin"}
}

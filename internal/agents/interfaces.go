package agents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

// Repository defines persistence operations for delivery agents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	FindAgent(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)
	ListByStatus(ctx context.Context, status enums.AgentStatus) ([]models.Agent, error)
	UpdateAgentStatus(ctx context.Context, agentID uuid.UUID, status enums.AgentStatus, moderatedAt time.Time) error
	UpdateAgentLocation(ctx context.Context, agentID uuid.UUID, coord types.GeoPoint, reportedAt time.Time) error
	ClearStaleLocations(ctx context.Context, cutoff time.Time) (int64, error)
}

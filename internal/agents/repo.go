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

type repository struct {
	db *gorm.DB
}

// NewRepository builds an agents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *repository) FindAgent(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).
		Where("id = ?", agentID).
		First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.AgentStatus) ([]models.Agent, error) {
	var rows []models.Agent
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateAgentStatus(ctx context.Context, agentID uuid.UUID, status enums.AgentStatus, moderatedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", agentID).
		Updates(map[string]any{
			"status":       status,
			"moderated_at": moderatedAt,
		}).Error
}

func (r *repository) UpdateAgentLocation(ctx context.Context, agentID uuid.UUID, coord types.GeoPoint, reportedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", agentID).
		Updates(map[string]any{
			"last_location":    coord,
			"last_location_at": reportedAt,
		}).Error
}

func (r *repository) ClearStaleLocations(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("last_location_at IS NOT NULL AND last_location_at < ?", cutoff).
		Updates(map[string]any{
			"last_location":    nil,
			"last_location_at": nil,
		})
	return result.RowsAffected, result.Error
}

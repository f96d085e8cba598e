package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/quickbites/dispatch-backend/pkg/enums"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

// Agent represents a delivery agent account.
type Agent struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string            `gorm:"column:name;not null"`
	Phone          *string           `gorm:"column:phone"`
	Email          *string           `gorm:"column:email"`
	Status         enums.AgentStatus `gorm:"column:status;type:agent_status;not null;default:'pending'"`
	VehicleType    *string           `gorm:"column:vehicle_type"`
	Zones          pq.StringArray    `gorm:"column:zones;type:text[]"`
	LastLocation   *types.GeoPoint   `gorm:"column:last_location;type:geography(Point,4326)"`
	LastLocationAt *time.Time        `gorm:"column:last_location_at"`
	ModeratedAt    *time.Time        `gorm:"column:moderated_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/pkg/types"
)

// Restaurant is the pickup side of every order.
type Restaurant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Address   *string         `gorm:"column:address"`
	Phone     *string         `gorm:"column:phone"`
	Location  *types.GeoPoint `gorm:"column:location;type:geography(Point,4326)"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

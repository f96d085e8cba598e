package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderAssignment captures agent assignment history for an order. DistanceKm
// is the pickup distance at assignment time, rounded to two decimals.
type OrderAssignment struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	AgentID      uuid.UUID  `gorm:"column:agent_id;type:uuid;not null"`
	DistanceKm   float64    `gorm:"column:distance_km;not null"`
	AssignedAt   time.Time  `gorm:"column:assigned_at;autoCreateTime"`
	UnassignedAt *time.Time `gorm:"column:unassigned_at"`
	Active       bool       `gorm:"column:active;not null;default:true"`
}

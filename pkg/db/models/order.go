package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/pkg/enums"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

// Order is a customer order moving through the delivery lifecycle.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID    uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	AgentID         *uuid.UUID        `gorm:"column:agent_id;type:uuid"`
	CustomerName    *string           `gorm:"column:customer_name"`
	DropoffAddress  *string           `gorm:"column:dropoff_address"`
	DropoffLocation *types.GeoPoint   `gorm:"column:dropoff_location;type:geography(Point,4326)"`
	AssignedAt      *time.Time        `gorm:"column:assigned_at"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at"`
	CanceledAt      *time.Time        `gorm:"column:canceled_at"`
	Restaurant      *Restaurant       `gorm:"foreignKey:RestaurantID"`
	Assignments     []OrderAssignment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/pkg/enums"
)

// QueueOrderSummary exposes the fields shown in the dispatch queue.
type QueueOrderSummary struct {
	OrderID        uuid.UUID         `json:"order_id"`
	RestaurantID   uuid.UUID         `json:"restaurant_id"`
	RestaurantName string            `json:"restaurant_name"`
	CustomerName   *string           `json:"customer_name,omitempty"`
	DropoffAddress *string           `json:"dropoff_address,omitempty"`
	Status         enums.OrderStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

// QueueList wraps the paginated dispatch queue plus the next page cursor.
type QueueList struct {
	Orders     []QueueOrderSummary `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// AssignedOrderSummary exposes the fields shown in an agent's order list.
type AssignedOrderSummary struct {
	OrderID        uuid.UUID         `json:"order_id"`
	RestaurantID   uuid.UUID         `json:"restaurant_id"`
	RestaurantName string            `json:"restaurant_name"`
	DropoffAddress *string           `json:"dropoff_address,omitempty"`
	Status         enums.OrderStatus `json:"status"`
	AssignedAt     *time.Time        `json:"assigned_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// AssignedList wraps an agent's paginated orders plus the next cursor.
type AssignedList struct {
	Orders     []AssignedOrderSummary `json:"orders"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

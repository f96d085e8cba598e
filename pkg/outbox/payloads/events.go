package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/pkg/enums"
)

// OrderAssignedEvent is emitted once an order wins an agent assignment.
type OrderAssignedEvent struct {
	OrderID      uuid.UUID `json:"orderId"`
	RestaurantID uuid.UUID `json:"restaurantId"`
	AgentID      uuid.UUID `json:"agentId"`
	DistanceKm   float64   `json:"distanceKm"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// AgentStatusChangedEvent reports a moderation decision on an agent.
type AgentStatusChangedEvent struct {
	AgentID        uuid.UUID         `json:"agentId"`
	PreviousStatus enums.AgentStatus `json:"previousStatus"`
	Status         enums.AgentStatus `json:"status"`
	ChangedAt      time.Time         `json:"changedAt"`
	Reason         string            `json:"reason,omitempty"`
}

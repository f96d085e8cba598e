package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	"github.com/quickbites/dispatch-backend/pkg/pagination"
)

// Repository defines persistence operations for restaurants, orders and
// assignment history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error)
	FindRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	CountActiveForAgent(ctx context.Context, agentID uuid.UUID, statuses []enums.OrderStatus) (int64, error)
	ClaimOrder(ctx context.Context, orderID, agentID uuid.UUID, assignedAt time.Time) (bool, error)
	CreateAssignment(ctx context.Context, assignment *models.OrderAssignment) error
	ListUnassignedPending(ctx context.Context, params pagination.Params) (*QueueList, error)
	ListAssignedOrders(ctx context.Context, agentID uuid.UUID, params pagination.Params) (*AssignedList, error)
}

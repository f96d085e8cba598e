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

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error) {
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (r *repository) FindRestaurant(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).
		Where("id = ?", restaurantID).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CountActiveForAgent(ctx context.Context, agentID uuid.UUID, statuses []enums.OrderStatus) (int64, error) {
	if len(statuses) == 0 {
		statuses = enums.DefaultActiveOrderStatuses
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("agent_id = ? AND status IN ?", agentID, statuses).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimOrder moves a pending order to confirmed for the given agent. The
// status guard in the WHERE clause makes concurrent claims resolve to a
// single winner; callers check the returned bool.
func (r *repository) ClaimOrder(ctx context.Context, orderID, agentID uuid.UUID, assignedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":      enums.OrderStatusConfirmed,
			"agent_id":    agentID,
			"assigned_at": assignedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) CreateAssignment(ctx context.Context, assignment *models.OrderAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) ListUnassignedPending(ctx context.Context, params pagination.Params) (*QueueList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("orders o").
		Select("o.id AS order_id, o.restaurant_id, r.name AS restaurant_name, o.customer_name, o.dropoff_address, o.status, o.created_at").
		Joins("JOIN restaurants r ON r.id = o.restaurant_id").
		Where("o.status = ? AND o.agent_id IS NULL", enums.OrderStatusPending)

	if decodedCursor != nil {
		query = query.Where("(o.created_at > ?) OR (o.created_at = ? AND o.id > ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []queueOrderRecord
	err = query.Order("o.created_at ASC").Order("o.id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.OrderID})
	}

	rows := make([]QueueOrderSummary, 0, len(resultRows))
	for _, record := range resultRows {
		rows = append(rows, QueueOrderSummary{
			OrderID:        record.OrderID,
			RestaurantID:   record.RestaurantID,
			RestaurantName: record.RestaurantName,
			CustomerName:   record.CustomerName,
			DropoffAddress: record.DropoffAddress,
			Status:         record.Status,
			CreatedAt:      record.CreatedAt,
		})
	}
	return &QueueList{Orders: rows, NextCursor: nextCursor}, nil
}

func (r *repository) ListAssignedOrders(ctx context.Context, agentID uuid.UUID, params pagination.Params) (*AssignedList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("orders o").
		Select("o.id AS order_id, o.restaurant_id, r.name AS restaurant_name, o.dropoff_address, o.status, o.assigned_at, o.created_at").
		Joins("JOIN restaurants r ON r.id = o.restaurant_id").
		Where("o.agent_id = ?", agentID)

	if decodedCursor != nil {
		query = query.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []assignedOrderRecord
	err = query.Order("o.created_at DESC").Order("o.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.OrderID})
	}

	rows := make([]AssignedOrderSummary, 0, len(resultRows))
	for _, record := range resultRows {
		rows = append(rows, AssignedOrderSummary{
			OrderID:        record.OrderID,
			RestaurantID:   record.RestaurantID,
			RestaurantName: record.RestaurantName,
			DropoffAddress: record.DropoffAddress,
			Status:         record.Status,
			AssignedAt:     record.AssignedAt,
			CreatedAt:      record.CreatedAt,
		})
	}
	return &AssignedList{Orders: rows, NextCursor: nextCursor}, nil
}

type queueOrderRecord struct {
	OrderID        uuid.UUID
	RestaurantID   uuid.UUID
	RestaurantName string
	CustomerName   *string
	DropoffAddress *string
	Status         enums.OrderStatus
	CreatedAt      time.Time
}

type assignedOrderRecord struct {
	OrderID        uuid.UUID
	RestaurantID   uuid.UUID
	RestaurantName string
	DropoffAddress *string
	Status         enums.OrderStatus
	AssignedAt     *time.Time
	CreatedAt      time.Time
}

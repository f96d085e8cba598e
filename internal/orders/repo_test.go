package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	"github.com/quickbites/dispatch-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  phone TEXT,
  location TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  restaurant_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  agent_id TEXT,
  customer_name TEXT,
  dropoff_address TEXT,
  dropoff_location TEXT,
  assigned_at DATETIME,
  delivered_at DATETIME,
  canceled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_assignments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  agent_id TEXT NOT NULL,
  distance_km REAL NOT NULL,
  assigned_at DATETIME,
  unassigned_at DATETIME,
  active INTEGER NOT NULL DEFAULT 1
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedRestaurant(t *testing.T, repo Repository, name string) *models.Restaurant {
	t.Helper()
	restaurant, err := repo.CreateRestaurant(context.Background(), &models.Restaurant{ID: uuid.New(), Name: name})
	require.NoError(t, err)
	return restaurant
}

func seedOrder(t *testing.T, repo Repository, restaurantID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order, err := repo.CreateOrder(context.Background(), &models.Order{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Status:       enums.OrderStatusPending,
		CreatedAt:    createdAt,
	})
	require.NoError(t, err)
	return order
}

func TestOrderRepoCreateAndFindPreloadsRestaurant(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	restaurant := seedRestaurant(t, repo, "Biryani House")
	order := seedOrder(t, repo, restaurant.ID, time.Now().UTC())

	found, err := repo.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, found.Status)
	require.NotNil(t, found.Restaurant)
	require.Equal(t, "Biryani House", found.Restaurant.Name)
}

func TestOrderRepoCountActiveForAgent(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	restaurant := seedRestaurant(t, repo, "Biryani House")
	agentID := uuid.New()

	mk := func(status enums.OrderStatus, assigned bool) {
		order := &models.Order{ID: uuid.New(), RestaurantID: restaurant.ID, Status: status}
		if assigned {
			order.AgentID = &agentID
		}
		_, err := repo.CreateOrder(ctx, order)
		require.NoError(t, err)
	}

	mk(enums.OrderStatusConfirmed, true)
	mk(enums.OrderStatusPicked, true)
	mk(enums.OrderStatusDelivered, true)
	mk(enums.OrderStatusConfirmed, false)

	count, err := repo.CountActiveForAgent(ctx, agentID, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = repo.CountActiveForAgent(ctx, agentID, []enums.OrderStatus{enums.OrderStatusDelivered})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestOrderRepoClaimOrderSingleWinner(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	restaurant := seedRestaurant(t, repo, "Biryani House")
	order := seedOrder(t, repo, restaurant.ID, time.Now().UTC())

	first := uuid.New()
	second := uuid.New()

	won, err := repo.ClaimOrder(ctx, order.ID, first, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.ClaimOrder(ctx, order.ID, second, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, won)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, found.Status)
	require.NotNil(t, found.AgentID)
	require.Equal(t, first, *found.AgentID)
	require.NotNil(t, found.AssignedAt)
}

func TestOrderRepoListUnassignedPendingPaginates(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	restaurant := seedRestaurant(t, repo, "Biryani House")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		order := seedOrder(t, repo, restaurant.ID, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, order.ID)
	}

	claimed, err := repo.ClaimOrder(ctx, ids[1], uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	require.True(t, claimed)

	page, err := repo.ListUnassignedPending(ctx, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	require.Equal(t, ids[0], page.Orders[0].OrderID)
	require.Equal(t, "Biryani House", page.Orders[0].RestaurantName)
	require.NotEmpty(t, page.NextCursor)

	page, err = repo.ListUnassignedPending(ctx, pagination.Params{Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	require.Equal(t, ids[2], page.Orders[0].OrderID)
	require.Empty(t, page.NextCursor)
}

func TestOrderRepoListAssignedOrders(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	restaurant := seedRestaurant(t, repo, "Biryani House")
	agentID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := seedOrder(t, repo, restaurant.ID, base)
	newer := seedOrder(t, repo, restaurant.ID, base.Add(time.Minute))
	for _, id := range []uuid.UUID{older.ID, newer.ID} {
		won, err := repo.ClaimOrder(ctx, id, agentID, time.Now().UTC())
		require.NoError(t, err)
		require.True(t, won)
	}
	seedOrder(t, repo, restaurant.ID, base.Add(2*time.Minute))

	page, err := repo.ListAssignedOrders(ctx, agentID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.Equal(t, newer.ID, page.Orders[0].OrderID)
	require.Equal(t, older.ID, page.Orders[1].OrderID)
	require.NotNil(t, page.Orders[0].AssignedAt)
}

func TestOrderRepoCreateAssignment(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	restaurant := seedRestaurant(t, repo, "Biryani House")
	order := seedOrder(t, repo, restaurant.ID, time.Now().UTC())

	assignment := &models.OrderAssignment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		AgentID:    uuid.New(),
		DistanceKm: 2.38,
		Active:     true,
	}
	require.NoError(t, repo.CreateAssignment(ctx, assignment))
}

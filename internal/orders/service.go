package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/pagination"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

// Service covers order intake and the read side of dispatch.
type Service interface {
	CreateRestaurant(ctx context.Context, input CreateRestaurantInput) (*models.Restaurant, error)
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Queue(ctx context.Context, params pagination.Params) (*QueueList, error)
	AssignedToAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params) (*AssignedList, error)
}

// CreateRestaurantInput carries the fields accepted when onboarding a restaurant.
type CreateRestaurantInput struct {
	Name     string
	Address  *string
	Phone    *string
	Location *types.GeoPoint
}

// CreateOrderInput carries the fields accepted at order intake.
type CreateOrderInput struct {
	RestaurantID    uuid.UUID
	CustomerName    *string
	DropoffAddress  *string
	DropoffLocation *types.GeoPoint
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the orders service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) CreateRestaurant(ctx context.Context, input CreateRestaurantInput) (*models.Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant name required")
	}
	if input.Location != nil && !input.Location.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinate")
	}

	restaurant := &models.Restaurant{
		Name:     name,
		Address:  input.Address,
		Phone:    input.Phone,
		Location: input.Location,
	}
	created, err := s.repo.CreateRestaurant(ctx, restaurant)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create restaurant")
	}
	return created, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if input.DropoffLocation != nil && !input.DropoffLocation.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinate")
	}

	if _, err := s.repo.FindRestaurant(ctx, input.RestaurantID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}

	order := &models.Order{
		RestaurantID:    input.RestaurantID,
		Status:          enums.OrderStatusPending,
		CustomerName:    input.CustomerName,
		DropoffAddress:  input.DropoffAddress,
		DropoffLocation: input.DropoffLocation,
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	s.logg.Info(logCtx, "order created")
	return created, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) Queue(ctx context.Context, params pagination.Params) (*QueueList, error) {
	list, err := s.repo.ListUnassignedPending(ctx, params)
	if err != nil {
		if _, cursorErr := pagination.ParseCursor(params.Cursor); cursorErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dispatch queue")
	}
	return list, nil
}

func (s *service) AssignedToAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params) (*AssignedList, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	list, err := s.repo.ListAssignedOrders(ctx, agentID, params)
	if err != nil {
		if _, cursorErr := pagination.ParseCursor(params.Cursor); cursorErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned orders")
	}
	return list, nil
}

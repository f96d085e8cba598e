package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/api/responses"
	"github.com/quickbites/dispatch-backend/api/validators"
	"github.com/quickbites/dispatch-backend/internal/dispatch"
	"github.com/quickbites/dispatch-backend/internal/orders"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/pagination"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

type restaurantCreateRequest struct {
	Name     string          `json:"name" validate:"required"`
	Address  *string         `json:"address,omitempty"`
	Phone    *string         `json:"phone,omitempty"`
	Location *types.GeoPoint `json:"location,omitempty"`
}

type orderCreateRequest struct {
	RestaurantID    string          `json:"restaurant_id" validate:"required"`
	CustomerName    *string         `json:"customer_name,omitempty"`
	DropoffAddress  *string         `json:"dropoff_address,omitempty"`
	DropoffLocation *types.GeoPoint `json:"dropoff_location,omitempty"`
}

// RestaurantCreate onboards a pickup location.
func RestaurantCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req restaurantCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.CreateRestaurant(r.Context(), orders.CreateRestaurantInput{
			Name:     req.Name,
			Address:  req.Address,
			Phone:    req.Phone,
			Location: req.Location,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, restaurant)
	}
}

// OrderCreate accepts a new order in the pending state.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurantID, err := uuid.Parse(strings.TrimSpace(req.RestaurantID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant_id"))
			return
		}

		order, err := svc.Create(r.Context(), orders.CreateOrderInput{
			RestaurantID:    restaurantID,
			CustomerName:    req.CustomerName,
			DropoffAddress:  req.DropoffAddress,
			DropoffLocation: req.DropoffLocation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderDetail returns one order with its restaurant.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderQueue lists unassigned pending orders, oldest first.
func OrderQueue(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Queue(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AgentAssignedOrders lists the orders currently held by one agent.
func AgentAssignedOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.AssignedToAgent(r.Context(), agentID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderAssigner triggers dispatch for a single order.
type OrderAssigner interface {
	Assign(ctx context.Context, orderID uuid.UUID) (*dispatch.AssignmentResult, error)
}

// OrderAssign triggers dispatch for a pending order.
func OrderAssign(svc OrderAssigner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Assign(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

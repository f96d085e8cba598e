package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/internal/agents"
	"github.com/quickbites/dispatch-backend/internal/dispatch"
	"github.com/quickbites/dispatch-backend/internal/orders"
	"github.com/quickbites/dispatch-backend/internal/tracking"
	"github.com/quickbites/dispatch-backend/pkg/config"
	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/pagination"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

type stubAgentsService struct {
	agent *models.Agent
}

func (s *stubAgentsService) Register(_ context.Context, input agents.RegisterInput) (*models.Agent, error) {
	return &models.Agent{ID: uuid.New(), Name: input.Name, Status: enums.AgentStatusPending}, nil
}

func (s *stubAgentsService) Approve(context.Context, agents.ModerationInput) error { return nil }
func (s *stubAgentsService) Reject(context.Context, agents.ModerationInput) error  { return nil }

func (s *stubAgentsService) Find(context.Context, uuid.UUID) (*models.Agent, error) {
	return s.agent, nil
}

func (s *stubAgentsService) ListActive(context.Context) ([]models.Agent, error) {
	return []models.Agent{*s.agent}, nil
}

func (s *stubAgentsService) ListPending(context.Context) ([]models.Agent, error) {
	return nil, nil
}

type stubOrdersService struct{}

func (stubOrdersService) CreateRestaurant(_ context.Context, input orders.CreateRestaurantInput) (*models.Restaurant, error) {
	return &models.Restaurant{ID: uuid.New(), Name: input.Name}, nil
}

func (stubOrdersService) Create(_ context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), RestaurantID: input.RestaurantID, Status: enums.OrderStatusPending}, nil
}

func (stubOrdersService) Get(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderStatusPending}, nil
}

func (stubOrdersService) Queue(context.Context, pagination.Params) (*orders.QueueList, error) {
	return &orders.QueueList{Orders: []orders.QueueOrderSummary{}}, nil
}

func (stubOrdersService) AssignedToAgent(context.Context, uuid.UUID, pagination.Params) (*orders.AssignedList, error) {
	return &orders.AssignedList{Orders: []orders.AssignedOrderSummary{}}, nil
}

type stubAssigner struct{}

func (stubAssigner) Assign(_ context.Context, orderID uuid.UUID) (*dispatch.AssignmentResult, error) {
	return &dispatch.AssignmentResult{OrderID: orderID, AgentID: uuid.New()}, nil
}

type routerAgentDirectory struct {
	agent *models.Agent
}

func (d *routerAgentDirectory) FindAgent(_ context.Context, agentID uuid.UUID) (*models.Agent, error) {
	if d.agent == nil || d.agent.ID != agentID {
		return nil, gorm.ErrRecordNotFound
	}
	return d.agent, nil
}

func (d *routerAgentDirectory) UpdateAgentLocation(context.Context, uuid.UUID, types.GeoPoint, time.Time) error {
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, uuid.UUID) {
	t.Helper()

	agentID := uuid.New()
	agent := &models.Agent{ID: agentID, Name: "Asha", Status: enums.AgentStatusActive}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	trackingSvc, err := tracking.NewService(tracking.ServiceParams{
		Store:  tracking.NewStore(),
		Hub:    tracking.NewHub(8, nil),
		Agents: &routerAgentDirectory{agent: agent},
		Logger: logg,
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Tracking.StreamHeartbeat = time.Second

	router := NewRouter(
		cfg,
		logg,
		nil,
		nil,
		&stubAgentsService{agent: agent},
		stubOrdersService{},
		trackingSvc,
		stubAssigner{},
	)
	return router, agentID
}

func TestRouterHealthLive(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-QuickBites-Env"))
}

func TestRouterAgentDetail(t *testing.T) {
	router, agentID := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/agents/%s", agentID), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	var payload struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "Asha", payload.Data.Name)
}

func TestRouterLocationReportAndSnapshot(t *testing.T) {
	router, agentID := newTestRouter(t)

	body := strings.NewReader(`{"lat":17.3850,"lng":78.4867}`)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/agents/%s/location", agentID), body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusAccepted, resp.Code)

	snap := httptest.NewRequest(http.MethodGet, "/api/v1/tracking/positions", nil)
	snapResp := httptest.NewRecorder()
	router.ServeHTTP(snapResp, snap)
	require.Equal(t, http.StatusOK, snapResp.Code)
	assert.Contains(t, snapResp.Body.String(), agentID.String())
}

func TestRouterLocationReportRejectsBadCoordinate(t *testing.T) {
	router, agentID := newTestRouter(t)

	body := strings.NewReader(`{"lat":95,"lng":10}`)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/agents/%s/location", agentID), body)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRouterAssignRequiresIdempotencyKey(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/assign", uuid.New()), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRouterOrderQueue(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/queue?limit=10", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

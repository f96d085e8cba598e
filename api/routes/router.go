package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickbites/dispatch-backend/api/controllers"
	"github.com/quickbites/dispatch-backend/api/middleware"
	"github.com/quickbites/dispatch-backend/internal/agents"
	"github.com/quickbites/dispatch-backend/internal/orders"
	"github.com/quickbites/dispatch-backend/internal/tracking"
	"github.com/quickbites/dispatch-backend/pkg/config"
	"github.com/quickbites/dispatch-backend/pkg/db"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	agentsService agents.Service,
	ordersService orders.Service,
	trackingService *tracking.Service,
	dispatchService controllers.OrderAssigner,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/agents", func(r chi.Router) {
			r.Post("/", controllers.AgentRegister(agentsService, logg))
			r.Route("/{agentId}", func(r chi.Router) {
				r.Use(middleware.AgentContext(logg))
				r.Get("/", controllers.AgentDetail(agentsService, logg))
				r.Get("/orders", controllers.AgentAssignedOrders(ordersService, logg))
				reportLimiter := middleware.ReportRateLimit(middleware.NewReportRateLimitPolicy(
					"location-report",
					cfg.Tracking.ReportRateWindow,
					cfg.Tracking.ReportRateIPLimit,
					cfg.Tracking.ReportRateLimit,
				), redisClient, logg)
				r.With(reportLimiter).Post("/location", controllers.LocationReport(trackingService, logg))
				r.Get("/location", controllers.AgentPosition(trackingService, logg))
			})
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Post("/", controllers.RestaurantCreate(ordersService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(ordersService, logg))
			r.Get("/queue", controllers.OrderQueue(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/assign", controllers.OrderAssign(dispatchService, logg))
		})

		r.Route("/tracking", func(r chi.Router) {
			r.Get("/positions", controllers.TrackingPositions(trackingService, logg))
			r.Get("/stream", controllers.TrackingStream(trackingService, cfg.Tracking.StreamHeartbeat, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/agents", func(r chi.Router) {
			r.Get("/queue", controllers.AdminAgentQueue(agentsService, logg))
			r.Get("/active", controllers.AdminAgentRoster(agentsService, logg))
			r.Route("/{agentId}", func(r chi.Router) {
				r.Use(middleware.AgentContext(logg))
				r.Post("/approve", controllers.AdminAgentApprove(agentsService, logg))
				r.Post("/reject", controllers.AdminAgentReject(agentsService, logg))
			})
		})
	})

	return r
}

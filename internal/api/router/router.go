package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hostdeck/hostdeck/internal/api/handlers"
	"github.com/hostdeck/hostdeck/internal/api/middleware"
	"github.com/hostdeck/hostdeck/internal/config"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/metrics"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Ledger    *handlers.LedgerHandler
	Shop      *handlers.ShopHandler
	Plan      *handlers.PlanHandler
	UserAdmin *handlers.UserAdminHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(metrics.Middleware)
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec per IP, burst of 200

	// Public routes
	r.Group(func(r chi.Router) {
		// Swagger documentation
		r.Get("/swagger/*", httpSwagger.WrapHandler)

		// Prometheus metrics
		r.Handle("/metrics", metrics.Handler())

		// Health checks
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		// Auth endpoints
		r.Post("/api/v1/auth/register", h.Auth.Register)
		r.Post("/api/v1/auth/login", h.Auth.Login)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

		r.Get("/api/v1/auth/me", h.Auth.Me)

		// Ledger
		r.Route("/api/v1/ledger", func(r chi.Router) {
			r.Get("/", h.Ledger.Get)
			// The refresh hits the external panel; throttle per user.
			r.With(middleware.UserRateLimit(0.2, 2)).Post("/refresh", h.Ledger.Refresh)
		})

		// Shop
		r.Route("/api/v1/shop", func(r chi.Router) {
			r.Get("/", h.Shop.Table)
			r.With(middleware.UserRateLimit(1, 3)).Post("/purchase", h.Shop.Purchase)
		})

		// Plan catalog (public side)
		r.Route("/api/v1/plans", func(r chi.Router) {
			r.Get("/", h.Plan.List)
			r.Get("/{id}", h.Plan.Get)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Route("/api/v1/admin/users", func(r chi.Router) {
				r.Get("/", h.UserAdmin.List)
				r.Get("/{id}", h.UserAdmin.Get)
				r.Put("/{id}", h.UserAdmin.UpdateProfile)
				r.Delete("/{id}", h.UserAdmin.Delete)
				r.Post("/{id}/coins", h.UserAdmin.AdjustCoins)
				r.Post("/{id}/admin", h.UserAdmin.SetAdmin)
				r.Post("/{id}/panel", h.UserAdmin.LinkPanel)
				r.Post("/{id}/reconcile", h.UserAdmin.Reconcile)
			})

			r.Route("/api/v1/admin/plans", func(r chi.Router) {
				r.Get("/", h.Plan.ListAll)
				r.Post("/", h.Plan.Create)
				r.Put("/{id}", h.Plan.Update)
				r.Delete("/{id}", h.Plan.Delete)
				r.Post("/{id}/grant/{userId}", h.Plan.Grant)
				r.Post("/{id}/revoke/{userId}", h.Plan.Revoke)
			})
		})
	})

	return r
}

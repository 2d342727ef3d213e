package web

import (
	"net/http"

	"github.com/DioGolang/GoCommon/internal/infra/web/handler"
	"github.com/DioGolang/GoCommon/internal/infra/web/middleware"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

type RouterConfig struct {
	ServiceName string
	Logger      logger.Logger
	Metrics     metrics.Metrics

	UnitOfWork  *middleware.UnitOfWork
	RateLimiter *middleware.RateLimiter
	// Idempotency is optional; nil disables the Idempotency-Key guard.
	Idempotency func(http.Handler) http.Handler

	Orders         *handler.Order
	Customers      *handler.Customer
	Health         http.Handler
	MetricsHandler http.Handler
}

// NewRouter mounts the API. Every route under the unit of work group runs
// inside one scope that commits when the handler succeeds.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.MetricsWrapper(cfg.Metrics))
	r.Use(chimw.Recoverer)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler(cfg.Logger))
	}

	if cfg.Health != nil {
		r.Handle("/health", cfg.Health)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.Idempotency != nil {
			r.Use(cfg.Idempotency)
		}
		r.Use(middleware.EventCallbacks)
		r.Use(cfg.UnitOfWork.Handler)

		r.Post("/customers", cfg.Customers.Create)
		r.Get("/customers/{id}", cfg.Customers.Details)

		r.Post("/orders", cfg.Orders.Create)
		r.Get("/orders/{id}", cfg.Orders.Details)
		r.Post("/orders/{id}/ship", cfg.Orders.Ship)
	})

	return r
}

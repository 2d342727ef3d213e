package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthRabbit "github.com/hellofresh/health-go/v5/checks/rabbitmq"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthOptions struct {
	checks []health.Config
}

type HealthOption func(*healthOptions)

// WithDatabase checks one of the databases behind the unit of work.
func WithDatabase(name string, db Pinger) HealthOption {
	return func(o *healthOptions) {
		if db == nil {
			return
		}
		o.checks = append(o.checks, health.Config{
			Name:    name,
			Timeout: 5 * time.Second,
			Check:   db.PingContext,
		})
	}
}

// WithCheck registers an arbitrary dependency. SkipOnErr marks the service
// as degraded instead of unavailable when it fails.
func WithCheck(name string, skipOnErr bool, check func(ctx context.Context) error) HealthOption {
	return func(o *healthOptions) {
		o.checks = append(o.checks, health.Config{
			Name:      name,
			Timeout:   3 * time.Second,
			SkipOnErr: skipOnErr,
			Check:     check,
		})
	}
}

func WithRabbitMQ(dsn string) HealthOption {
	return func(o *healthOptions) {
		if dsn == "" {
			return
		}
		o.checks = append(o.checks, health.Config{
			Name:    "rabbitmq",
			Timeout: 3 * time.Second,
			Check:   healthRabbit.New(healthRabbit.Config{DSN: dsn}),
		})
	}
}

func NewHealthHandler(serviceName, version string, opts ...HealthOption) (http.Handler, error) {
	options := &healthOptions{}
	for _, opt := range opts {
		opt(options)
	}

	h, err := health.New(health.WithComponent(health.Component{
		Name:    serviceName,
		Version: version,
	}))
	if err != nil {
		return nil, err
	}
	for _, check := range options.checks {
		if err := h.Register(check); err != nil {
			return nil, err
		}
	}
	return h.Handler(), nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/DioGolang/GoCommon/configs"
	"github.com/DioGolang/GoCommon/internal/application/usecase/customer"
	"github.com/DioGolang/GoCommon/internal/application/usecase/order"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/internal/infra/database"
	"github.com/DioGolang/GoCommon/internal/infra/event"
	"github.com/DioGolang/GoCommon/internal/infra/grpc/service"
	"github.com/DioGolang/GoCommon/internal/infra/storage"
	"github.com/DioGolang/GoCommon/internal/infra/web"
	"github.com/DioGolang/GoCommon/internal/infra/web/handler"
	"github.com/DioGolang/GoCommon/internal/infra/web/middleware"
	"github.com/DioGolang/GoCommon/pkg/container"
	"github.com/DioGolang/GoCommon/pkg/container/digadapter"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/events"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
)

// buildContainer opens every connection the API needs and registers the
// application graph. The returned cleanup closes the connections in
// reverse order.
func buildContainer(ctx context.Context, cfg *configs.Conf, log logger.Logger) (container.Adapter, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}
	fail := func(err error) (container.Adapter, func(), error) {
		cleanup()
		return nil, nil, err
	}

	m := metrics.NewPrometheusMetrics(prometheus.DefaultRegisterer, serviceName)

	conns, err := database.Connect(ctx, cfg.OrdersDBDSN, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, conns.Close)

	mode, err := data.ParseTransactionMode(cfg.UOWTransactionMode)
	if err != nil {
		return fail(err)
	}
	filterScope, err := middleware.ParseFilterScope(cfg.UOWFilterScope)
	if err != nil {
		return fail(err)
	}
	manager := data.NewManager(conns.Resolver,
		data.WithLogger(log),
		data.WithMetrics(m),
		data.WithDefaultMode(mode),
	)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	closers = append(closers, rdb.Close)
	store := storage.NewRedisAdapter(rdb)

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return fail(fmt.Errorf("connect to rabbitmq: %w", err))
	}
	closers = append(closers, conn.Close)
	ch, err := conn.Channel()
	if err != nil {
		return fail(err)
	}
	closers = append(closers, ch.Close)
	publisher := event.NewRabbitPublisher(ch)
	if err := publisher.DeclareTopology(); err != nil {
		return fail(err)
	}

	c := digadapter.New()
	if err := database.TagStrategies(c); err != nil {
		return fail(err)
	}
	if err := c.RegisterInstance("event-handler.log", event.LogHandler{Logger: log}); err != nil {
		return fail(err)
	}
	if err := c.Tag(events.HandlerTag(entity.OrderShippedEvent), "event-handler.log"); err != nil {
		return fail(err)
	}

	registrations := []error{
		container.Instance[logger.Logger](c, log),
		container.Instance[metrics.Metrics](c, m),
		container.Instance(c, manager),

		container.Singleton(c, func(container.Resolver) (*database.UnitOfWorkImpl, error) {
			provider := database.NewRepositoryProvider(data.ContainerStrategies(c), m)
			provider = provider.WithProducts(database.NewRedisProductCache(provider.Products(), rdb, 5*time.Minute, log, m))
			return database.NewUnitOfWork(manager, provider), nil
		}),
		container.Singleton(c, func(container.Resolver) (*events.Dispatcher, error) {
			return events.NewDispatcher(
				events.WithResolver(c),
				events.WithPublisher(publisher),
				events.WithLogger(log),
				events.WithMetrics(m),
			), nil
		}),
		container.Singleton(c, func(r container.Resolver) (*handler.Order, error) {
			uow, err := container.Get[*database.UnitOfWorkImpl](r)
			if err != nil {
				return nil, err
			}
			dispatcher, err := container.Get[*events.Dispatcher](r)
			if err != nil {
				return nil, err
			}
			return handler.NewOrderHandler(
				&order.CreateOrderMetricsDecorator{Next: order.NewCreateUseCase(uow), Metrics: m},
				order.ShipOrderMetricsDecorator{Next: order.NewShipUseCase(uow, dispatcher), Metrics: m},
				order.NewDetailsUseCase(uow),
				log,
			), nil
		}),
		container.Singleton(c, func(r container.Resolver) (*handler.Customer, error) {
			uow, err := container.Get[*database.UnitOfWorkImpl](r)
			if err != nil {
				return nil, err
			}
			return handler.NewCustomerHandler(customer.NewCreateUseCase(uow), customer.NewDetailsUseCase(uow), log), nil
		}),
		container.Singleton(c, func(container.Resolver) (*service.Health, error) {
			return service.NewHealth(log,
				service.Check{Name: "orders-db", Probe: conns.OrdersSQL.PingContext},
				service.Check{Name: "audit-db", Probe: conns.Audit.PingContext},
			), nil
		}),
		container.Singleton(c, func(r container.Resolver) (*grpc.Server, error) {
			health, err := container.Get[*service.Health](r)
			if err != nil {
				return nil, err
			}
			return service.NewServer(m, health), nil
		}),
		container.Singleton(c, func(r container.Resolver) (http.Handler, error) {
			orders, err := container.Get[*handler.Order](r)
			if err != nil {
				return nil, err
			}
			customers, err := container.Get[*handler.Customer](r)
			if err != nil {
				return nil, err
			}
			health, err := handler.NewHealthHandler(serviceName, "1.0.0",
				handler.WithDatabase("orders-db", conns.OrdersSQL),
				handler.WithDatabase("audit-db", conns.Audit),
				handler.WithCheck("redis", true, store.Ping),
				handler.WithRabbitMQ(cfg.AMQPURL),
			)
			if err != nil {
				return nil, err
			}
			return web.NewRouter(web.RouterConfig{
				ServiceName: serviceName,
				Logger:      log,
				Metrics:     m,
				UnitOfWork:  middleware.NewUnitOfWork(manager, middleware.Options{Scope: filterScope, TransactionMode: mode}, log),
				RateLimiter: middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
					RequestsPerSecond: cfg.RateLimitRPS,
					Burst:             cfg.RateLimitBurst,
				}),
				Idempotency:    middleware.Idempotency(store, 24*time.Hour, log),
				Orders:         orders,
				Customers:      customers,
				Health:         health,
				MetricsHandler: promhttp.Handler(),
			}), nil
		}),
	}
	for _, err := range registrations {
		if err != nil {
			return fail(err)
		}
	}
	return c, cleanup, nil
}

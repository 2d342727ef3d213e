package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DioGolang/GoCommon/configs"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/internal/infra/database"
	"github.com/DioGolang/GoCommon/internal/infra/event"
	"github.com/DioGolang/GoCommon/internal/infra/storage"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	carrier "github.com/DioGolang/GoCommon/pkg/otel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

const (
	serviceName = "gocommon-worker"
	queueName   = "audit.order-shipped"
)

func main() {
	cfg, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}
	log := logger.NewLogger(serviceName, cfg.IsProd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "worker stopped with error", logger.WithError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *configs.Conf, log logger.Logger) error {
	shutdownTracer, err := carrier.InitProvider(ctx, carrier.ProviderConfig{
		ServiceName:   serviceName,
		Version:       "1.0.0",
		Environment:   cfg.AppEnv,
		CollectorAddr: cfg.OtelCollector,
		SampleRatio:   cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	m := metrics.NewPrometheusMetrics(prometheus.DefaultRegisterer, serviceName)

	conns, err := database.Connect(ctx, cfg.OrdersDBDSN, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer conns.Close()

	strategies := data.NewStrategyRegistry(m)
	database.RegisterStrategies(strategies)
	manager := data.NewManager(conns.Resolver, data.WithLogger(log), data.WithMetrics(m))
	uow := database.NewUnitOfWork(manager, database.NewRepositoryProvider(strategies, m))

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	const handlerName = "AuditOrderShipped"
	h := event.NewOrderShippedHandler(uow, log)
	h = event.WrapExponentialBackoff(log, m, handlerName, 3, 200*time.Millisecond, h)
	h = event.WrapIdempotency(log, storage.NewRedisAdapter(rdb), handlerName, 24*time.Hour, h)
	h = event.WrapResilientConsumer(m, handlerName, 30*time.Second, event.NewBreaker(handlerName), h)

	log.Info(ctx, "Worker started", logger.String("queue", queueName))
	return event.NewConsumer(ch, log).Start(ctx, queueName, entity.OrderShippedEvent, h)
}

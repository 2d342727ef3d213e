package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DioGolang/GoCommon/configs"
	"github.com/DioGolang/GoCommon/internal/infra/grpc/service"
	"github.com/DioGolang/GoCommon/pkg/container"
	"github.com/DioGolang/GoCommon/pkg/logger"
	carrier "github.com/DioGolang/GoCommon/pkg/otel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	_ "modernc.org/sqlite"
)

const serviceName = "gocommon-api"

func main() {
	cfg, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}
	log := logger.NewLogger(serviceName, cfg.IsProd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "api stopped with error", logger.WithError(err))
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
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "failed to flush traces", logger.WithError(err))
		}
	}()

	c, cleanup, err := buildContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	router, err := container.Get[http.Handler](c)
	if err != nil {
		return err
	}
	health, err := container.Get[*service.Health](c)
	if err != nil {
		return err
	}
	grpcServer, err := container.Get[*grpc.Server](c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.WebServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gCtx, "HTTP server listening", logger.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return err
		}
		log.Info(gCtx, "gRPC server listening", logger.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		health.Run(gCtx, 10*time.Second)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

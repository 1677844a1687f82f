// Package main implements the plantwater monitor service. It samples a
// plant's sensors on an interval and serves the latest status over HTTP
// and gRPC.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/HatiCode/plantwater/cmd/monitor/config"
	"github.com/HatiCode/plantwater/cmd/monitor/logger"
	"github.com/HatiCode/plantwater/cmd/monitor/metrics"
	"github.com/HatiCode/plantwater/cmd/monitor/monitor"
	"github.com/HatiCode/plantwater/cmd/monitor/router"
	"github.com/HatiCode/plantwater/pkg/adapters"
	"github.com/HatiCode/plantwater/pkg/api/statusrpc"
	"github.com/HatiCode/plantwater/pkg/httpx"
	"github.com/HatiCode/plantwater/pkg/storage"
)

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting plantwater monitor",
		"version", "v0.1.0",
		"source", cfg.Source,
		"interval", cfg.Interval,
	)

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		logger.Error("failed to load tuning", "error", err)
		os.Exit(1)
	}

	source, closeSource, err := newSource(cfg, logger)
	if err != nil {
		logger.Error("failed to create source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	store := storage.NewMemoryStore()
	m, err := monitor.New(cfg.Plant, source, store, tuning, metrics.New(cfg.Plant), logger)
	if err != nil {
		logger.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		var err error
		if cfg.Source == config.SourceCSV {
			err = m.Replay(ctx)
		} else {
			err = m.Run(ctx, cfg.Interval)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sampling loop failed", "error", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCListen != "" {
		grpcServer = grpc.NewServer()
		statusrpc.RegisterStatusServer(grpcServer, statusrpc.NewServer(store, cfg.Plant, logger))

		healthServer := health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus(statusrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

		reflection.Register(grpcServer)

		lis, err := net.Listen("tcp", cfg.GRPCListen)
		if err != nil {
			logger.Error("failed to listen", "error", err)
			os.Exit(1)
		}
		go func() {
			logger.Info("grpc server listening", "address", cfg.GRPCListen)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("grpc server failed", "error", err)
			}
		}()
	}

	staleAfter := 2 * cfg.Interval // Snapshot is stale if older than 2x the interval
	mux := router.SetupRoutes(store, m, staleAfter, logger)
	handler := httpx.RecoveryMiddleware(logger)(httpx.LoggingMiddleware(logger)(mux))
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// newSource builds the configured observation source and its cleanup.
func newSource(cfg *config.Config, logger *slog.Logger) (adapters.Source, func(), error) {
	switch cfg.Source {
	case config.SourceCSV:
		f, err := os.Open(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return adapters.NewCSVSource(f), func() { f.Close() }, nil

	case config.SourceTail:
		t, err := adapters.NewTailSource(cfg.File, logger)
		if err != nil {
			return nil, nil, err
		}
		return t, func() { t.Close() }, nil

	default:
		var filter *adapters.SoilFilter
		if cfg.SoilRaw {
			filter = adapters.NewSoilFilter()
		}
		p, err := adapters.NewPrometheusSource(cfg.PromURL, adapters.Queries{
			Soil:        cfg.PromSoilQuery,
			Temperature: cfg.PromTempQuery,
			Humidity:    cfg.PromHumidityQuery,
			Light:       cfg.PromLightQuery,
		}, filter)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	}
}

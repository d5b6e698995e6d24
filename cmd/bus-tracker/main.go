package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"

	"bus-tracker/internal/auth"
	"bus-tracker/internal/bus"
	"bus-tracker/internal/config"
	"bus-tracker/internal/db"
	httphandler "bus-tracker/internal/http"
	"bus-tracker/internal/http/middleware"
	"bus-tracker/internal/live"
	"bus-tracker/internal/logger"
	"bus-tracker/internal/metrics"
	"bus-tracker/internal/repository"
	"bus-tracker/internal/service"
	"bus-tracker/internal/supervisor"
	"bus-tracker/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment, cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load timezone")
	}

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	collector := metrics.NewCollector()

	busRepo := repository.NewBusRepository(database)
	positionRepo := repository.NewPositionRepository(database)
	routeRepo := repository.NewRouteRepository(database)
	tripRepo := repository.NewTripRepository(database)
	studentRepo := repository.NewStudentRepository(database)

	resolver := service.NewTripResolver(tripRepo, routeRepo, studentRepo, loc)
	snapshotBuilder := service.NewSnapshotBuilder(busRepo, positionRepo, resolver)

	registry := live.NewRegistry()
	dispatcher := live.NewDispatcher(registry, snapshotBuilder, live.DispatcherConfig{
		Workers:      cfg.Live.Workers,
		BuildTimeout: cfg.Live.BuildTimeout,
	}, collector, appLogger)
	positionService := service.NewPositionService(busRepo, positionRepo, dispatcher)

	tree := supervisor.NewTree(appLogger, supervisor.TreeConfig{ShutdownTimeout: cfg.HTTP.ShutdownTimeout})
	tree.AddLiveService(live.NewSweeper(registry, cfg.Live.SweepInterval, collector, appLogger))

	var nc *nats.Conn
	if cfg.NATS.Enabled() {
		nc, err = bus.Connect(cfg.NATS.URL, "bus-tracker", collector, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect nats")
		}
		fanout := bus.NewFanout(nc, cfg.NATS.SubjectPrefix, dispatcher, collector, appLogger)
		positionService.SetNotifier(fanout)
		tree.AddMessagingService(fanout)
		tree.AddMessagingService(bus.NewPositionConsumer(nc, cfg.NATS.SubjectPrefix, positionService, collector, appLogger))
	} else {
		appLogger.Info().Msg("NATS_URL not set, live updates stay local to this instance")
	}

	var authMiddleware gin.HandlerFunc
	if cfg.Auth.Enabled() {
		authMiddleware = middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret))
	} else {
		appLogger.Warn().Msg("JWT_ACCESS_SECRET not set, position ingestion is unauthenticated")
		authMiddleware = middleware.Optional()
	}

	handler := httphandler.NewHandler(positionService, snapshotBuilder, dispatcher, collector, cfg.Live.SendBuffer, appLogger)
	router := httphandler.NewRouter(handler, authMiddleware, collector.Handler(), cfg.Environment, appLogger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown does not track hijacked connections.
	srv.RegisterOnShutdown(func() {
		closed := registry.CloseAll()
		appLogger.Info().Int("channels", closed).Msg("live channels closed")
	})
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.HTTP.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info().Str("addr", cfg.Addr()).Str("timezone", loc.String()).Msg("starting bus tracker")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error().Err(err).Msg("supervisor stopped")
	}

	registry.CloseAll()
	dispatcher.Close()
	if nc != nil {
		if err := nc.Drain(); err != nil {
			appLogger.Warn().Err(err).Msg("nats drain failed")
		}
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	appLogger.Info().Msg("bus tracker stopped")
}

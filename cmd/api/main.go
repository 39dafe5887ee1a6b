package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mealdash/mealdash-backend/api/controllers"
	"github.com/mealdash/mealdash-backend/api/routes"
	"github.com/mealdash/mealdash-backend/internal/bus"
	"github.com/mealdash/mealdash-backend/internal/cache"
	"github.com/mealdash/mealdash-backend/internal/chat"
	"github.com/mealdash/mealdash-backend/internal/dispatch"
	"github.com/mealdash/mealdash-backend/internal/gateway"
	"github.com/mealdash/mealdash-backend/internal/notifications"
	"github.com/mealdash/mealdash-backend/internal/orders"
	"github.com/mealdash/mealdash-backend/internal/riders"
	"github.com/mealdash/mealdash-backend/internal/zones"
	"github.com/mealdash/mealdash-backend/pkg/config"
	"github.com/mealdash/mealdash-backend/pkg/db"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/metrics"
	"github.com/mealdash/mealdash-backend/pkg/migrate"
	"github.com/mealdash/mealdash-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	busMetrics := metrics.NewBusMetrics(registry)
	dispatchMetrics := metrics.NewDispatchMetrics(registry)
	gatewayMetrics := metrics.NewGatewayMetrics(registry)

	eventBus, err := bus.New(bus.DefaultBuffer, logg, busMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create event bus", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	cacheStore, err := cache.New(redisClient, cfg.Cache.TTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cache store", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	ordersRepo := orders.NewRepository(gormDB)
	ridersRepo := riders.NewRepository(gormDB)
	zonesRepo := zones.NewRepository(gormDB)
	chatRepo := chat.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	zoneResolver, err := zones.NewResolver(zonesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create zone resolver", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(
		notificationsRepo,
		notifications.NewLogPusher(logg),
		cfg.Dispatch,
		logg,
		dispatchMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	dispatchSvc, err := dispatch.NewService(ridersRepo, ordersRepo, notificationsSvc, eventBus, logg, dispatchMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.Deps{
		Repo:        ordersRepo,
		Tx:          dbClient,
		Bus:         eventBus,
		Cache:       cacheStore,
		Notifier:    notificationsSvc,
		Zones:       zoneResolver,
		Riders:      ridersRepo,
		Broadcaster: dispatchSvc,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	ridersSvc, err := riders.NewService(ridersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create riders service", err)
		os.Exit(1)
	}

	chatSvc, err := chat.NewService(chatRepo, ordersRepo, eventBus, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	gw, err := gateway.New(eventBus, cfg.Gateway, logg, gatewayMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create websocket gateway", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Redis:  redisClient,
		HealthChecks: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Registry:      registry,
		Orders:        ordersSvc,
		Riders:        ridersSvc,
		Chat:          chatSvc,
		Notifications: notificationsSvc,
		Dispatch:      dispatchSvc,
		Gateway:       gw,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

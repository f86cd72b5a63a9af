package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/barstockwise/backend/api/routes"
	"github.com/barstockwise/backend/internal/credits"
	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/internal/kitchen"
	"github.com/barstockwise/backend/internal/notifications"
	"github.com/barstockwise/backend/internal/sales"
	"github.com/barstockwise/backend/internal/tables"
	"github.com/barstockwise/backend/pkg/config"
	"github.com/barstockwise/backend/pkg/db"
	"github.com/barstockwise/backend/pkg/logger"
	"github.com/barstockwise/backend/pkg/metrics"
	"github.com/barstockwise/backend/pkg/migrate"
	"github.com/barstockwise/backend/pkg/redis"
)

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
	engineMetrics := metrics.NewEngineMetrics(registry)

	gormDB := dbClient.DB()

	notificationsSvc, err := notifications.NewService(
		notifications.NewRepository(gormDB),
		redisClient,
		cfg.Stock.AlertChannel,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	inventorySvc, err := inventory.NewService(inventory.NewRepository(gormDB), dbClient, notificationsSvc, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	kitchenSvc, err := kitchen.NewService(kitchen.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create kitchen service", err)
		os.Exit(1)
	}

	tablesSvc, err := tables.NewService(tables.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create tables service", err)
		os.Exit(1)
	}

	salesRepo := sales.NewRepository(gormDB)

	settler, err := sales.NewSettler(salesRepo, inventorySvc, tablesSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create settler", err)
		os.Exit(1)
	}

	creditsSvc, err := credits.NewService(credits.NewRepository(gormDB), dbClient, settler, notificationsSvc, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create credits service", err)
		os.Exit(1)
	}

	salesSvc, err := sales.NewService(salesRepo, dbClient, settler, inventorySvc, kitchenSvc, tablesSvc, creditsSvc, notificationsSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Sales:         salesSvc,
			Credits:       creditsSvc,
			Inventory:     inventorySvc,
			Kitchen:       kitchenSvc,
			Tables:        tablesSvc,
			Notifications: notificationsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

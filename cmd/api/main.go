package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tallyworks/licensing-backend/api/routes"
	"github.com/tallyworks/licensing-backend/internal/adjustments"
	"github.com/tallyworks/licensing-backend/internal/billingcycles"
	"github.com/tallyworks/licensing-backend/internal/licenses"
	"github.com/tallyworks/licensing-backend/internal/payments"
	"github.com/tallyworks/licensing-backend/internal/rates"
	"github.com/tallyworks/licensing-backend/pkg/config"
	"github.com/tallyworks/licensing-backend/pkg/db"
	"github.com/tallyworks/licensing-backend/pkg/logger"
	"github.com/tallyworks/licensing-backend/pkg/metrics"
	"github.com/tallyworks/licensing-backend/pkg/migrate"
	"github.com/tallyworks/licensing-backend/pkg/redis"
	"github.com/tallyworks/licensing-backend/pkg/refgen"
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
	billingMetrics := metrics.NewBillingMetrics(registry)

	refs := refgen.New("PAY")

	licenseService, err := licenses.NewService(licenses.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create license service", err)
		os.Exit(1)
	}

	rateService, err := rates.NewService(rates.NewRepository(dbClient.DB()), redisClient, logg, cfg.Billing.RateCacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create rates service", err)
		os.Exit(1)
	}

	adjustmentRepo := adjustments.NewRepository(dbClient.DB())
	adjustmentService, err := adjustments.NewService(
		adjustmentRepo,
		licenseService,
		rateService,
		refs,
		billingMetrics,
		logg,
		cfg.Billing.BaseCurrencyCode,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create adjustments service", err)
		os.Exit(1)
	}

	cycleService, err := billingcycles.NewService(
		billingcycles.NewRepository(dbClient.DB()),
		licenseService,
		rateService,
		adjustmentRepo,
		refs,
		billingMetrics,
		logg,
		cfg.Billing.BaseCurrencyCode,
		cfg.Billing.DueDateGraceDays,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing cycles service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(
		payments.NewRepository(dbClient.DB()),
		cycleService,
		adjustmentService,
		refs,
		billingMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			licenseService,
			adjustmentService,
			cycleService,
			paymentService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

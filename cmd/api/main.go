package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mayaruiz/secondstory-backend/api/routes"
	"github.com/mayaruiz/secondstory-backend/internal/items"
	"github.com/mayaruiz/secondstory-backend/internal/refunds"
	"github.com/mayaruiz/secondstory-backend/internal/rewards"
	"github.com/mayaruiz/secondstory-backend/internal/settlement"
	"github.com/mayaruiz/secondstory-backend/pkg/config"
	"github.com/mayaruiz/secondstory-backend/pkg/db"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/metrics"
	"github.com/mayaruiz/secondstory-backend/pkg/migrate"
	"github.com/mayaruiz/secondstory-backend/pkg/redis"
	"github.com/mayaruiz/secondstory-backend/pkg/stripe"
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
	commerce := metrics.NewCommerceMetrics(registry)

	priceCeiling, err := cfg.Commerce.PriceCeilingAmount()
	if err != nil {
		logg.Error(context.Background(), "invalid price ceiling", err)
		os.Exit(1)
	}
	shippingFee, err := cfg.Commerce.ShippingFeeAmount()
	if err != nil {
		logg.Error(context.Background(), "invalid shipping fee", err)
		os.Exit(1)
	}

	itemsService, err := items.NewService(items.NewRepository(dbClient.DB()), dbClient, priceCeiling)
	if err != nil {
		logg.Error(context.Background(), "failed to create items service", err)
		os.Exit(1)
	}

	rewardsService, err := rewards.NewService(rewards.NewRepository(dbClient.DB()), dbClient, logg, commerce)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	// Without a Stripe key, card checkout is refused at settlement time;
	// in-house sales keep working.
	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to initialize stripe", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe api key not set, card payments disabled")
	}

	var settlementService settlement.Service
	if stripeClient != nil {
		settlementService, err = settlement.NewService(settlement.NewRepository(dbClient.DB()), dbClient, stripeClient, rewardsService, logg, commerce, shippingFee)
	} else {
		settlementService, err = settlement.NewService(settlement.NewRepository(dbClient.DB()), dbClient, nil, rewardsService, logg, commerce, shippingFee)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	var refundsService refunds.Service
	if stripeClient != nil {
		refundsService, err = refunds.NewService(refunds.NewRepository(dbClient.DB()), stripeClient, logg, commerce)
	} else {
		refundsService, err = refunds.NewService(refunds.NewRepository(dbClient.DB()), nil, logg, commerce)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry, itemsService, settlementService, rewardsService, refundsService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

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

	"github.com/AmadouLah/pneumback-sub001/api/routes"
	"github.com/AmadouLah/pneumback-sub001/internal/delivery"
	"github.com/AmadouLah/pneumback-sub001/internal/notifications"
	"github.com/AmadouLah/pneumback-sub001/internal/payments"
	"github.com/AmadouLah/pneumback-sub001/internal/pricing"
	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/config"
	"github.com/AmadouLah/pneumback-sub001/pkg/db"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
	"github.com/AmadouLah/pneumback-sub001/pkg/metrics"
	"github.com/AmadouLah/pneumback-sub001/pkg/migrate"
	"github.com/AmadouLah/pneumback-sub001/pkg/outbox"
	"github.com/AmadouLah/pneumback-sub001/pkg/paydunya"
	"github.com/AmadouLah/pneumback-sub001/pkg/redis"
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

	gateway, err := paydunya.NewClient(context.Background(), cfg.PayDunya, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paydunya client", err)
		os.Exit(1)
	}

	quoteRepo := quotes.NewRepository(dbClient.DB())
	paymentRepo := payments.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())
	promotionRepo := pricing.NewPromotionRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	pricingEngine, err := pricing.NewEngine(promotionRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing engine", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	quoteService, err := quotes.NewService(quoteRepo, dbClient, outboxService, pricingEngine, notificationService, cfg.Quotes.ValidityDays)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(
		paymentRepo,
		quoteRepo,
		dbClient,
		gateway,
		outboxService,
		logg,
		metrics.NewPaymentMetrics(prometheus.DefaultRegisterer),
		cfg.PayDunya.CallbackURL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	deliveryService, err := delivery.NewService(quoteRepo, dbClient, outboxService, notificationService, paymentService, cfg.Delivery.AbsentCeiling)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
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
			quoteService,
			paymentService,
			deliveryService,
			notificationService,
			promotionRepo,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(graceCtx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

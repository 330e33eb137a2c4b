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

	"github.com/pitwallhq/pitwall-gateway/api/routes"
	"github.com/pitwallhq/pitwall-gateway/internal/garage"
	"github.com/pitwallhq/pitwall-gateway/internal/payments"
	"github.com/pitwallhq/pitwall-gateway/internal/shop"
	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	"github.com/pitwallhq/pitwall-gateway/pkg/leagueapi"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
	"github.com/pitwallhq/pitwall-gateway/pkg/metrics"
	"github.com/pitwallhq/pitwall-gateway/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	leagueClient, err := leagueapi.New(cfg.League, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create league client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	viewCache, err := garage.NewCache(leagueClient, redisClient, cfg.Views.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create view cache", err)
		os.Exit(1)
	}

	checkoutService, err := shop.NewService(shop.ServiceParams{
		League:    leagueClient,
		Store:     payments.NewTransactionStore(),
		Refresher: viewCache,
		Poll:      cfg.Poll,
		Logger:    logg,
		Metrics:   paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
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
	logg.Info(ctx, "starting gateway server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, checkoutService, viewCache, registry),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "gateway server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down gateway server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
	}
}

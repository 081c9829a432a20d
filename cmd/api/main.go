package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweetdelights/bakery-backend/api/routes"
	"github.com/sweetdelights/bakery-backend/internal/cart"
	"github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	"github.com/sweetdelights/bakery-backend/internal/payments"
	product "github.com/sweetdelights/bakery-backend/internal/products"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/db"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/metrics"
	"github.com/sweetdelights/bakery-backend/pkg/migrate"
	"github.com/sweetdelights/bakery-backend/pkg/redis"
	"github.com/sweetdelights/bakery-backend/pkg/square"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	productService, err := product.NewService(product.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(
		cart.NewRepository(dbClient.DB()),
		redisClient,
		productService,
		cart.OptionsFromConfig(cfg.Cart),
		cartMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	verifier, err := newVerifier(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment verifier", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartStore,
		ordersRepo,
		verifier,
		checkout.OptionsFromConfig(cfg.Checkout),
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"checkout_flow": cfg.Checkout.Flow,
	})

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Products: productService,
			Cart:     cartStore,
			Checkout: checkoutService,
			Orders:   ordersService,
		}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(serverCtx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(serverCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}

// newVerifier returns the Square lookup verifier when verification is
// enabled, otherwise the callback reference is trusted.
func newVerifier(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payments.Verifier, error) {
	if !cfg.Payments.Verify {
		logg.Warn(logg.WithField(ctx, "prod", cfg.App.IsProd()), "payment verification disabled, trusting widget callbacks")
		return payments.NewTrustCallbackVerifier(logg), nil
	}
	client, err := square.NewClient(ctx, cfg.Square, logg)
	if err != nil {
		return nil, err
	}
	return payments.NewSquareVerifier(client, logg)
}

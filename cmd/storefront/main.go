package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/addresses"
	"github.com/matheusmosca/storefront/internal/cart"
	"github.com/matheusmosca/storefront/internal/catalog"
	"github.com/matheusmosca/storefront/internal/checkout"
	"github.com/matheusmosca/storefront/internal/config"
	"github.com/matheusmosca/storefront/internal/events"
	"github.com/matheusmosca/storefront/internal/inventory"
	"github.com/matheusmosca/storefront/internal/logger"
	"github.com/matheusmosca/storefront/internal/orders"
	"github.com/matheusmosca/storefront/internal/postgres"
	"github.com/matheusmosca/storefront/internal/server"
	"github.com/matheusmosca/storefront/internal/telemetry"
	"github.com/matheusmosca/storefront/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("❌ Storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Settings{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			zlog.Warn("Error shutting down telemetry", zap.Error(err))
		}
	}()

	pool, err := postgres.Connect(ctx, postgres.PoolSettings{
		DSN:      cfg.Database.DSN(),
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	}, zlog)
	if err != nil {
		return err
	}
	defer pool.Close()

	var cache catalog.Cache = catalog.NopCache{}
	if cfg.RedisURL != "" {
		rdb, err := catalog.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		cache = catalog.NewRedisCache(rdb, cfg.CatalogCacheTTL, zlog)
		zlog.Info("✅ Catalog cache enabled", zap.Duration("ttl", cfg.CatalogCacheTTL))
	}

	publisher, err := events.NewPublisher(ctx, cfg.OrderEventsTopicARN)
	if err != nil {
		return err
	}

	tracer := otel.Tracer(cfg.ServiceName)
	meter := otel.Meter(cfg.ServiceName)
	tx := postgres.NewTransactor(pool)

	catalogService := catalog.NewService(catalog.NewRepository(), pool, cache, tracer, zlog)
	ledger := inventory.NewLedger(inventory.NewRepository(), pool, tracer, zlog)
	cartRepository := cart.NewRepository()
	cartUseCase := cart.NewUseCase(cartRepository, ledger, tx, pool, catalogService, cfg.CartStockCoupling, tracer, zlog)
	orderRepository := orders.NewRepository()
	orderUseCase := orders.NewUseCase(orderRepository, pool, publisher, tracer, zlog)
	addressUseCase := addresses.NewUseCase(addresses.NewRepository(), tx, pool, tracer, zlog)
	userService := users.NewService(users.NewRepository(), pool, tracer, zlog)

	orchestrator, err := checkout.NewOrchestrator(cartRepository, orderRepository, addressUseCase, tx, publisher, meter, tracer, zlog)
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := server.New(server.Handlers{
		Catalog:   catalog.NewHandler(catalogService, tracer, zlog),
		Cart:      cart.NewHandler(cartUseCase, tracer, zlog),
		Checkout:  checkout.NewHandler(orchestrator, tracer, zlog),
		Orders:    orders.NewHandler(orderUseCase, tracer, zlog),
		Inventory: inventory.NewHandler(ledger, tracer, zlog),
		Addresses: addresses.NewHandler(addressUseCase, tracer, zlog),
		Users:     users.NewHandler(userService, tracer, zlog),
	}, server.Options{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequireAdmin:   cfg.RequireAdmin,
		AdminLookup:    userService,
		AuthLimiter:    users.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst),
	}, zlog)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("🚀 Storefront listening",
			zap.String("port", cfg.Port),
			zap.String("cart_stock_coupling", cfg.CartStockCoupling),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

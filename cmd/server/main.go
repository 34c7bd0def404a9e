// Package main is the entry point for the tradebook API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradebook/internal/domain/auth"
	"tradebook/internal/domain/catalogs/product"
	"tradebook/internal/domain/documents/purchase"
	"tradebook/internal/domain/documents/sale"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
	"tradebook/internal/domain/reports"
	"tradebook/internal/domain/storefront"
	"tradebook/internal/infrastructure/cache"
	v1 "tradebook/internal/infrastructure/http/v1"
	"tradebook/internal/infrastructure/storage/postgres"
	"tradebook/internal/infrastructure/storage/postgres/auth_repo"
	"tradebook/internal/infrastructure/storage/postgres/catalog_repo"
	"tradebook/internal/infrastructure/storage/postgres/document_repo"
	"tradebook/internal/infrastructure/storage/postgres/register_repo"
	"tradebook/internal/infrastructure/storage/postgres/report_repo"
	"tradebook/pkg/logger"
	"tradebook/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	logger.Info(ctx, "starting tradebook server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to database", "error", err)
	}
	defer pool.Close()
	logger.Info(ctx, "database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseOrderRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	ledgerRepo := register_repo.NewLedgerRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Services ---
	numeratorService := numerator.New(txManager)

	stockService := stock.NewService(stockRepo)
	ledgerService := ledger.NewService(ledgerRepo)
	productService := product.NewService(productRepo, txManager)
	saleService := sale.NewService(saleRepo, stockService, ledgerService, numeratorService, txManager)
	purchaseService := purchase.NewService(purchaseRepo, stockService, ledgerService, numeratorService, txManager)
	reportsService := reports.NewService(reportRepo, productRepo, ledgerService)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(userRepo, txManager, jwtService, auth.DefaultServiceConfig())

	// --- Storefront cache (optional) ---
	var availabilityCache storefront.Cache
	if redisURL := getEnv("REDIS_URL", ""); redisURL != "" {
		client, err := cache.NewRedisClient(ctx, redisURL)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, storefront served without cache", "error", err)
		} else {
			defer client.Close()
			availabilityCache = cache.NewAvailabilityCache(client, getEnvDuration("STOREFRONT_CACHE_TTL", 30*time.Second))
			logger.Info(ctx, "storefront cache enabled")
		}
	}
	storefrontService := storefront.NewService(productRepo, stockService, availabilityCache)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              pool,
		AuthService:       authService,
		ProductService:    productService,
		SaleService:       saleService,
		PurchaseService:   purchaseService,
		StockService:      stockService,
		LedgerService:     ledgerService,
		ReportsService:    reportsService,
		StorefrontService: storefrontService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal(ctx, "server forced to shutdown", "error", err)
	}

	logger.Info(ctx, "server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

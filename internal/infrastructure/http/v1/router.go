// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"tradebook/internal/domain/auth"
	"tradebook/internal/domain/catalogs/product"
	"tradebook/internal/domain/documents/purchase"
	"tradebook/internal/domain/documents/sale"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
	"tradebook/internal/domain/reports"
	"tradebook/internal/domain/storefront"
	"tradebook/internal/infrastructure/http/v1/handlers"
	"tradebook/internal/infrastructure/http/v1/middleware"
	"tradebook/internal/infrastructure/storage/postgres"
)

// RouterConfig holds the wired services the API exposes.
type RouterConfig struct {
	Pool *postgres.Pool

	AuthService       *auth.Service
	ProductService    *product.Service
	SaleService       *sale.Service
	PurchaseService   *purchase.Service
	StockService      *stock.Service
	LedgerService     *ledger.Service
	ReportsService    *reports.Service
	StorefrontService *storefront.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Public endpoints
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
		v1.POST("/auth/login", authHandler.Login)

		storefrontHandler := handlers.NewStorefrontHandler(base, cfg.StorefrontService)
		v1.GET("/storefront/availability", storefrontHandler.List)

		// Protected endpoints
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))

		protected.GET("/auth/me", authHandler.Me)

		admin := protected.Group("")
		admin.Use(middleware.RequireAdmin())
		admin.POST("/auth/register", authHandler.Register)

		registerCatalogRoutes(protected, base, cfg)
		registerDocumentRoutes(protected, base, cfg)
		registerRegisterRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
	}

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	productHandler := handlers.NewProductHandler(base, cfg.ProductService)

	products := rg.Group("/catalog/products")
	{
		products.POST("", productHandler.Create)
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	saleHandler := handlers.NewSaleHandler(base, cfg.SaleService)

	sales := rg.Group("/documents/sales")
	{
		sales.POST("", saleHandler.Create)
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)
		sales.PUT("/:id", saleHandler.Update)
		sales.DELETE("/:id", saleHandler.Delete)
	}

	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.PurchaseService)

	orders := rg.Group("/documents/purchase-orders")
	{
		orders.POST("", purchaseHandler.Create)
		orders.GET("", purchaseHandler.List)
		orders.GET("/:id", purchaseHandler.Get)
		orders.PUT("/:id", purchaseHandler.Update)
		orders.POST("/:id/receive", purchaseHandler.Receive)
		orders.POST("/:id/cancel", purchaseHandler.Cancel)
	}
}

func registerRegisterRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	stockHandler := handlers.NewStockHandler(base, cfg.StockService)

	stockGroup := rg.Group("/registers/stock")
	{
		stockGroup.GET("/products/:id", stockHandler.Counters)
		stockGroup.GET("/products/:id/movements", stockHandler.Movements)
		stockGroup.GET("/branches/:branch", stockHandler.BranchStock)
		stockGroup.GET("/branches/:branch/export", stockHandler.ExportBranchStock)
		stockGroup.GET("/turnover", stockHandler.Turnover)
	}

	ledgerHandler := handlers.NewLedgerHandler(base, cfg.LedgerService)

	ledgerGroup := rg.Group("/registers/ledger")
	{
		ledgerGroup.GET("", ledgerHandler.List)
		ledgerGroup.GET("/source/:id", ledgerHandler.EntriesFor)
		ledgerGroup.GET("/totals", ledgerHandler.Totals)
		ledgerGroup.GET("/export", ledgerHandler.Export)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	reportsHandler := handlers.NewReportsHandler(base, cfg.ReportsService)

	reportsGroup := rg.Group("/reports")
	{
		reportsGroup.GET("/sales-summary", reportsHandler.SalesSummary)
		reportsGroup.GET("/profit", reportsHandler.Profit)
		reportsGroup.GET("/profit/export", reportsHandler.ExportProfit)
		reportsGroup.GET("/cash-flow", reportsHandler.CashFlow)
	}
}

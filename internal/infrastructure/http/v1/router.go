// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/domain/catalogs/product"
	"tillbook/internal/domain/documents/opname"
	"tillbook/internal/domain/documents/purchase"
	"tillbook/internal/domain/documents/sale"
	"tillbook/internal/domain/documents/salereturn"
	"tillbook/internal/domain/ledger/cash"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/infrastructure/http/v1/handlers"
	"tillbook/internal/infrastructure/http/v1/middleware"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Audit is optional; handlers skip audit logging when nil
	Audit *postgres.AuditService

	Products  *product.Service
	Stock     *stock.Service
	Sales     *sale.Service
	Returns   *salereturn.Service
	Cash      *cash.Service
	Purchases *purchase.Service
	Opnames   *opname.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	productHandler := handlers.NewProductHandler(base, cfg.Products)
	stockHandler := handlers.NewStockHandler(base, cfg.Stock)
	saleHandler := handlers.NewSaleHandler(base, cfg.Sales, cfg.Audit)
	returnHandler := handlers.NewReturnHandler(base, cfg.Returns, cfg.Audit)
	cashHandler := handlers.NewCashHandler(base, cfg.Cash, cfg.Audit)
	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.Purchases, cfg.Audit)
	opnameHandler := handlers.NewOpnameHandler(base, cfg.Opnames, cfg.Audit)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		products := api.Group("/products")
		{
			products.POST("", productHandler.Create)
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
		}

		stockGroup := api.Group("/stock")
		{
			stockGroup.POST("/movements", middleware.RequireRole("admin", "manager"), stockHandler.RecordMovement)
			stockGroup.GET("/movements/:productId", stockHandler.GetMovements)
			stockGroup.GET("/valuation", stockHandler.GetValuation)
			stockGroup.GET("/low", stockHandler.GetLowStock)
			stockGroup.GET("/dead", stockHandler.GetDeadStock)
		}

		sales := api.Group("/sales")
		{
			sales.POST("", saleHandler.Create)
			sales.GET("", saleHandler.List)
			sales.GET("/dashboard", saleHandler.Dashboard)
			sales.POST("/lock", middleware.RequireRole("admin", "manager"), saleHandler.Lock)
			sales.GET("/:id", saleHandler.Get)
			sales.POST("/:id/complete", saleHandler.Complete)
			sales.DELETE("/:id", saleHandler.Delete)
		}

		returns := api.Group("/returns")
		{
			returns.POST("", returnHandler.Create)
			returns.GET("", returnHandler.List)
			returns.GET("/eligible", returnHandler.Returnable)
			returns.GET("/:id", returnHandler.Get)
		}

		cashGroup := api.Group("/cash")
		{
			cashGroup.POST("", cashHandler.Create)
			cashGroup.GET("", cashHandler.List)
			cashGroup.GET("/balance", cashHandler.Balance)
			cashGroup.GET("/summary", cashHandler.FlowSummary)
			cashGroup.GET("/expenses", cashHandler.ExpenseByCategory)
			cashGroup.GET("/categories", cashHandler.Categories)
			cashGroup.GET("/:id", cashHandler.Get)
			cashGroup.PUT("/:id", cashHandler.Update)
			cashGroup.DELETE("/:id", cashHandler.Delete)
			cashGroup.POST("/:id/verify", middleware.RequireRole("admin", "manager"), cashHandler.Verify)
		}

		purchases := api.Group("/purchases")
		{
			purchases.POST("/orders", purchaseHandler.CreateOrder)
			purchases.GET("/orders", purchaseHandler.ListOrders)
			purchases.GET("/orders/:id", purchaseHandler.GetOrder)
			purchases.POST("/orders/:id/receive", purchaseHandler.ReceiveOrder)
			purchases.POST("/orders/:id/cancel", purchaseHandler.CancelOrder)
			purchases.POST("/manual", purchaseHandler.RecordManual)
		}

		opnames := api.Group("/opnames")
		{
			opnames.POST("", opnameHandler.Create)
			opnames.GET("", opnameHandler.List)
			opnames.GET("/:id", opnameHandler.Get)
			opnames.POST("/:id/process", middleware.RequireRole("admin", "manager"), opnameHandler.Process)
		}
	}

	return router
}

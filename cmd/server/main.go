// Package main is the entry point for the tillbook API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tillbook/internal/domain/catalogs/product"
	"tillbook/internal/domain/documents/opname"
	"tillbook/internal/domain/documents/purchase"
	"tillbook/internal/domain/documents/sale"
	"tillbook/internal/domain/documents/salereturn"
	"tillbook/internal/domain/ledger/cash"
	"tillbook/internal/domain/registers/stock"
	v1 "tillbook/internal/infrastructure/http/v1"
	"tillbook/internal/infrastructure/http/v1/middleware"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/internal/infrastructure/storage/postgres/catalog_repo"
	"tillbook/internal/infrastructure/storage/postgres/document_repo"
	"tillbook/internal/infrastructure/storage/postgres/ledger_repo"
	"tillbook/internal/infrastructure/storage/postgres/register_repo"
	"tillbook/pkg/logger"
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

	ctx := context.Background()
	log.Info("starting tillbook server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	returnRepo := document_repo.NewReturnRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseRepo(txManager)
	opnameRepo := document_repo.NewOpnameRepo(txManager)
	cashRepo := ledger_repo.NewCashRepo(txManager)
	seqRepo := postgres.NewSequenceRepo(txManager)

	// --- Audit ---
	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	defer audit.Close()

	// --- Services ---
	productService := product.NewService(productRepo, txManager)
	stockService := stock.NewService(productRepo, stockRepo, txManager)
	cashService := cash.NewService(cashRepo, seqRepo, txManager)
	saleService := sale.NewService(productRepo, saleRepo, stockService, cashService, seqRepo, txManager)
	returnService := salereturn.NewService(returnRepo, saleRepo, stockService, cashService, seqRepo, txManager)
	purchaseService := purchase.NewService(productRepo, purchaseRepo, stockService, cashService, seqRepo, txManager)
	opnameService := opname.NewService(productRepo, opnameRepo, stockService, txManager)

	// --- JWT ---
	jwtValidator := middleware.NewTokenValidator(mustEnv("JWT_SECRET"))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		Logger:       log,
		JWTValidator: jwtValidator,
		Audit:        audit,
		Products:     productService,
		Stock:        stockService,
		Sales:        saleService,
		Returns:      returnService,
		Cash:         cashService,
		Purchases:    purchaseService,
		Opnames:      opnameService,
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
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

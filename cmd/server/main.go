package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountapp "github.com/resellbill/backend/internal/application/account"
	billingapp "github.com/resellbill/backend/internal/application/billing"
	pricingapp "github.com/resellbill/backend/internal/application/pricing"
	reportingapp "github.com/resellbill/backend/internal/application/reporting"
	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/infrastructure/cache"
	"github.com/resellbill/backend/internal/infrastructure/config"
	"github.com/resellbill/backend/internal/infrastructure/logger"
	"github.com/resellbill/backend/internal/infrastructure/persistence"
	"github.com/resellbill/backend/internal/interfaces/http/handler"
	"github.com/resellbill/backend/internal/interfaces/http/middleware"
	"github.com/resellbill/backend/internal/interfaces/http/router"
)

//	@title			Billing Backend API
//	@version		1.0
//	@description	Reseller billing platform API - usage metering, rate cards, credit ledger and reporting

//	@contact.name	API Support
//	@contact.url	https://github.com/resellbill/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Account API key authentication

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Idempotency fast path: Redis when configured, in-process otherwise.
	// The journal lookup is authoritative either way.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Addr:     cfg.Redis.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
			idempotencyStore = cache.NewInMemoryIdempotencyStore()
		} else {
			log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.RedisAddr()))
			idempotencyStore = redisStore
		}
		defer func() {
			if err := idempotencyStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
	}

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	apiKeyRepo := persistence.NewGormAPIKeyRepository(db.DB)
	rateCardRepo := persistence.NewGormRateCardRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)

	// Initialize application services
	accountService := accountapp.NewAccountService(accountRepo, apiKeyRepo, log)
	pricingService := pricingapp.NewPricingService(rateCardRepo, log)
	billingService := billingapp.NewBillingService(
		accountRepo,
		ledgerRepo,
		ledgerRepo,
		pricingService,
		idempotencyStore,
		log,
	).WithIdempotencyConfig(shared.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		Enabled: cfg.Idempotency.Enabled,
	})
	reportingService := reportingapp.NewReportingService(accountRepo, ledgerRepo, log)

	// Initialize HTTP handlers
	accountHandler := handler.NewAccountHandler(accountService)
	pricingHandler := handler.NewPricingHandler(pricingService)
	billingHandler := handler.NewBillingHandler(billingService)
	reportingHandler := handler.NewReportingHandler(reportingService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, security headers, CORS, body limit, API key auth
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// API key authentication. Account registration stays open so a fresh
	// deployment can bootstrap its first operator.
	authConfig := middleware.APIKeyConfig{
		Resolver: accountService,
		SkipPaths: []string{
			"/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
			"/api/v1/accounts/operators",
		},
		Logger: log,
	}
	engine.Use(middleware.APIKeyAuthWithConfig(authConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Register API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(accountHandler).
		Register(pricingHandler).
		Register(billingHandler).
		Register(reportingHandler).
		Register(systemHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

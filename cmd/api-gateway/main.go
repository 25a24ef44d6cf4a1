package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/hostfolio/hostfolio-api/api/swagger"
	"github.com/hostfolio/hostfolio-api/internal/handler"
	"github.com/hostfolio/hostfolio-api/internal/middleware"
	"github.com/hostfolio/hostfolio-api/internal/models"
	"github.com/hostfolio/hostfolio-api/internal/repository"
	"github.com/hostfolio/hostfolio-api/internal/service"
	"github.com/hostfolio/hostfolio-api/pkg/cache"
	"github.com/hostfolio/hostfolio-api/pkg/config"
	"github.com/hostfolio/hostfolio-api/pkg/database"
	"github.com/hostfolio/hostfolio-api/pkg/jobs"
	"github.com/hostfolio/hostfolio-api/pkg/logger"
	corsmiddleware "github.com/hostfolio/hostfolio-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hostfolio/hostfolio-api/pkg/middleware/requestid"
	"github.com/hostfolio/hostfolio-api/pkg/storage"
)

// @title Hostfolio API
// @version 1.0.0
// @description Short-term rental management API with rule-based availability
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hostfolio-api",
	})
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled && redisClient != nil)
	propertySvc := service.NewPropertyService(propertyRepo, validate, logr)
	ruleSvc := service.NewRuleService(ruleRepo, propertyRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(propertyRepo, ruleRepo, cfg.Quotes.MaxRangeNights, logr)
	quoteSvc := service.NewQuoteService(propertyRepo, ruleRepo, validate, logr, cfg.Quotes.MaxStayNights)
	bookingSvc := service.NewBookingService(bookingRepo, quoteSvc, userRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(analyticsRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})

	var reportSvc *service.ReportService
	reportQueue := jobs.NewQueue("reports", func(ctx context.Context, job jobs.Job) error {
		return reportSvc.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	reportSvc = service.NewReportService(service.ReportServiceParams{
		Repo:       reportRepo,
		Properties: propertyRepo,
		Bookings:   bookingRepo,
		Occupancy:  analyticsRepo,
		Queue:      reportQueue,
		Store:      reportStore,
		Signer:     signer,
		Metrics:    metricsSvc,
		Validator:  validate,
		Logger:     logr,
		Config:     service.ReportServiceConfig{DownloadPath: cfg.APIPrefix + "/reports/download"},
	})

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	if cfg.Reports.Enabled {
		reportQueue.Start(rootCtx)
		defer reportQueue.Stop()
		go cleanupLoop(rootCtx, reportStore, cfg.Reports.SignedURLTTL, cfg.Reports.CleanupInterval, logr)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	propertyHandler := handler.NewPropertyHandler(propertySvc)
	ruleHandler := handler.NewRuleHandler(ruleSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	quoteHandler := handler.NewQuoteHandler(quoteSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc, authHandler, propertyHandler, ruleHandler, availabilityHandler, quoteHandler, bookingHandler, dashboardHandler, reportHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authSvc *service.AuthService,
	authHandler *handler.AuthHandler,
	propertyHandler *handler.PropertyHandler,
	ruleHandler *handler.RuleHandler,
	availabilityHandler *handler.AvailabilityHandler,
	quoteHandler *handler.QuoteHandler,
	bookingHandler *handler.BookingHandler,
	dashboardHandler *handler.DashboardHandler,
	reportHandler *handler.ReportHandler,
) {
	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	// Download validates its own signed token, so it stays outside JWT.
	api.GET("/reports/download", reportHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		properties := authed.Group("/properties")
		{
			properties.GET("", propertyHandler.List)
			properties.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), propertyHandler.Create)
			properties.GET("/:id", propertyHandler.Get)
			properties.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), propertyHandler.Update)
			properties.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), propertyHandler.Delete)

			properties.GET("/:id/rules", ruleHandler.List)
			properties.POST("/:id/rules", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), ruleHandler.Create)
			properties.GET("/:id/rules/:ruleId", ruleHandler.Get)
			properties.PUT("/:id/rules/:ruleId", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), ruleHandler.Update)
			properties.PATCH("/:id/rules/:ruleId/toggle", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), ruleHandler.Toggle)
			properties.DELETE("/:id/rules/:ruleId", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), ruleHandler.Delete)

			properties.GET("/:id/availability", availabilityHandler.Calendar)
			properties.POST("/:id/quote", quoteHandler.Quote)

			properties.GET("/:id/bookings", bookingHandler.List)
			properties.POST("/:id/bookings", bookingHandler.Create)
		}

		bookings := authed.Group("/bookings")
		{
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
		}

		dashboard := authed.Group("/dashboard")
		dashboard.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
		{
			dashboard.GET("/summary", dashboardHandler.Summary)
		}

		reports := authed.Group("/reports")
		reports.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
		{
			reports.POST("", reportHandler.Create)
			reports.GET("", reportHandler.List)
			reports.GET("/:id", reportHandler.Status)
		}
	}
}

func cleanupLoop(ctx context.Context, store *storage.LocalStorage, ttl, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Sugar().Warnw("report cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				logr.Sugar().Infow("expired report files removed", "count", len(deleted))
			}
		}
	}
}

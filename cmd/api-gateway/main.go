package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lavoro-hq/rota-api/api/swagger"
	"github.com/lavoro-hq/rota-api/internal/handler"
	"github.com/lavoro-hq/rota-api/internal/middleware"
	"github.com/lavoro-hq/rota-api/internal/models"
	"github.com/lavoro-hq/rota-api/internal/repository"
	"github.com/lavoro-hq/rota-api/internal/service"
	"github.com/lavoro-hq/rota-api/pkg/cache"
	"github.com/lavoro-hq/rota-api/pkg/config"
	"github.com/lavoro-hq/rota-api/pkg/database"
	"github.com/lavoro-hq/rota-api/pkg/jobs"
	"github.com/lavoro-hq/rota-api/pkg/logger"
	corsmiddleware "github.com/lavoro-hq/rota-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lavoro-hq/rota-api/pkg/middleware/requestid"
	"github.com/lavoro-hq/rota-api/pkg/storage"
)

// @title Rota API
// @version 0.1.0
// @description Shift roster generation service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	shiftDefRepo := repository.NewShiftDefinitionRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "rota-api",
	})

	rosterSvc := service.NewRosterGeneratorService(
		scheduleRepo,
		employeeRepo,
		shiftDefRepo,
		constraintRepo,
		leaveRepo,
		assignmentRepo,
		scheduleRepo,
		cacheSvc,
		metricsSvc,
		nil,
		logr,
		service.RosterGeneratorConfig{
			ProposalTTL:   cfg.Roster.ProposalTTL,
			MaxPeriodDays: cfg.Roster.MaxPeriodDays,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exportSvc *service.RosterExportService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportRepo := repository.NewExportJobRepository(db)

		var exportWorker *service.RosterExportWorker
		queue := jobs.NewQueue("roster-exports", func(ctx context.Context, job jobs.Job) error {
			return exportWorker.Handle(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})

		exportSvc = service.NewRosterExportService(
			exportRepo,
			scheduleRepo,
			assignmentRepo,
			employeeRepo,
			shiftDefRepo,
			queue,
			exportStore,
			signer,
			logr,
			service.RosterExportConfig{
				APIPrefix:       cfg.APIPrefix,
				ResultTTL:       cfg.Exports.SignedURLTTL,
				CleanupInterval: cfg.Exports.CleanupInterval,
				MaxRetries:      cfg.Exports.WorkerRetries,
			},
		)
		exportWorker = service.NewRosterExportWorker(exportRepo, exportSvc, cfg.Exports.WorkerRetries, logr)

		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

	planners := middleware.RequireRoles(models.RoleAdmin, models.RolePlanner)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RolePlanner, models.RoleViewer)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.POST("/rosters/generate", planners, rosterHandler.Generate)
	protected.POST("/rosters/save", planners, rosterHandler.Save)
	protected.GET("/schedules/:id/roster", anyRole, rosterHandler.GetRoster)
	protected.GET("/schedules/:id/validate", anyRole, rosterHandler.Validate)
	if exportSvc != nil {
		protected.POST("/schedules/:id/export", planners, rosterHandler.Export)
		protected.GET("/exports/jobs/:jobId", anyRole, rosterHandler.ExportStatus)
		// downloads authenticate via the signed token alone
		api.GET("/exports/:token", rosterHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

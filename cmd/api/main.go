package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/campushub/college-api/internal/handler"
	"github.com/campushub/college-api/internal/middleware"
	"github.com/campushub/college-api/internal/models"
	"github.com/campushub/college-api/internal/repository"
	"github.com/campushub/college-api/internal/service"
	"github.com/campushub/college-api/pkg/cache"
	"github.com/campushub/college-api/pkg/config"
	"github.com/campushub/college-api/pkg/database"
	"github.com/campushub/college-api/pkg/logger"
	corsmiddleware "github.com/campushub/college-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/college-api/pkg/middleware/requestid"
)

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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summary caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	attendanceRepo := repository.NewAttendanceRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Attendance.SummaryCacheTTL, logr)
	}

	validate := validator.New()
	gate := service.NewAccessGate(directoryRepo, service.GateConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)
	recorder := service.NewAttendanceRecorder(attendanceRepo, directoryRepo, validate, logr)
	aggregator := service.NewAttendanceAggregator(attendanceRepo, directoryRepo, logr)
	attendanceSvc := service.NewAttendanceService(gate, recorder, aggregator, cacheSvc, metricsSvc, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var warmer *service.SummaryWarmer
	if cacheSvc.Enabled() {
		warmer = service.NewSummaryWarmer(aggregator, cacheSvc, logr)
		warmer.Start(rootCtx)
		defer warmer.Stop()
		attendanceSvc.UseSummaryWarmer(warmer)
	}

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Timeout(cfg.Attendance.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(gate))
	{
		attendance := api.Group("/attendance")
		attendance.GET("/my", attendanceHandler.My)
		attendance.GET("/my/:subjectCode", attendanceHandler.SubjectSummary)
		attendance.POST("/mark",
			middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin),
			attendanceHandler.Mark)
		attendance.GET("/subject/:subjectCode",
			middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin),
			attendanceHandler.Subject)
		if cfg.Attendance.ExportEnabled {
			attendance.GET("/subject/:subjectCode/export",
				middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin),
				attendanceHandler.Export)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}

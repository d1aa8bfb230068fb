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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/exam-console-api/api/swagger"
	"github.com/noah-isme/exam-console-api/internal/handler"
	"github.com/noah-isme/exam-console-api/internal/middleware"
	"github.com/noah-isme/exam-console-api/internal/repository"
	"github.com/noah-isme/exam-console-api/internal/service"
	"github.com/noah-isme/exam-console-api/internal/upstream"
	"github.com/noah-isme/exam-console-api/pkg/cache"
	"github.com/noah-isme/exam-console-api/pkg/config"
	"github.com/noah-isme/exam-console-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-console-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-console-api/pkg/middleware/requestid"
)

// @title Exam Console API
// @version 0.1.0
// @description Gateway hosting timetable editing sessions against the exam scheduler backend
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	upstreamClient := upstream.NewClient(cfg.Upstream, logr, metrics)

	var cacheSvc *service.CacheService
	if cfg.Occupancy.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, occupancy cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			repo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(repo, metrics, cfg.Occupancy.CacheTTL, logr, true)
		}
	}
	if cacheSvc == nil {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Occupancy.CacheTTL, logr, false)
	}

	placementSvc := service.NewPlacementService(upstreamClient, cfg.Sessions, validate, logr, metrics)
	placementSvc.Start(ctx)

	occupancySvc := service.NewOccupancyService(upstreamClient, cacheSvc, validate, logr)

	importSvc := service.NewImportService(cfg.Imports, upstreamClient, metrics, logr)
	importSvc.Start(ctx)
	defer importSvc.Stop()

	exportSvc := service.NewExportService(upstreamClient, occupancySvc, cfg.Exports.Enabled, logr)
	dashboardSvc := service.NewDashboardService(upstreamClient, occupancySvc, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	schedulingHandler := handler.NewSchedulingHandler(placementSvc)
	occupancyHandler := handler.NewOccupancyHandler(occupancySvc)
	importHandler := handler.NewImportHandler(importSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	api := r.Group(cfg.APIPrefix)
	{
		sessions := api.Group("/sessions")
		sessions.POST("", schedulingHandler.CreateSession)
		sessions.GET("/:id", schedulingHandler.View)
		sessions.DELETE("/:id", schedulingHandler.Close)
		sessions.GET("/:id/pool", schedulingHandler.FilterPool)
		sessions.POST("/:id/drop", schedulingHandler.Drop)
		sessions.POST("/:id/choose-slot", schedulingHandler.ChooseSlot)
		sessions.POST("/:id/confirm", schedulingHandler.Confirm)
		sessions.POST("/:id/cancel", schedulingHandler.Cancel)
		sessions.POST("/:id/remove-exam", schedulingHandler.RemoveExam)
		sessions.POST("/:id/reload", schedulingHandler.Reload)

		occupancy := api.Group("/occupancy")
		occupancy.GET("", occupancyHandler.Grouped)
		occupancy.GET("/records", occupancyHandler.Records)
		occupancy.PATCH("/change-room", occupancyHandler.ChangeRoom)
		occupancy.POST("/students", occupancyHandler.Students)

		imports := api.Group("/imports")
		imports.POST("", importHandler.Create)
		imports.GET("/:id", importHandler.Status)
		imports.GET("/:id/events", importHandler.Events)

		exports := api.Group("/exports")
		exports.GET("/timetable", exportHandler.Timetable)
		exports.GET("/occupancy", exportHandler.Occupancy)

		api.GET("/dashboard", dashboardHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("shutdown incomplete", zap.Error(err))
	}
}

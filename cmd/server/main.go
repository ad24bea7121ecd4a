package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/giteastats/internal/gitea"
	"github.com/alimgiray/giteastats/internal/handlers"
	"github.com/alimgiray/giteastats/internal/metrics"
	"github.com/alimgiray/giteastats/internal/middleware"
	"github.com/alimgiray/giteastats/internal/repositories"
	"github.com/alimgiray/giteastats/internal/services"
	"github.com/alimgiray/giteastats/pkg/config"
	"github.com/alimgiray/giteastats/pkg/database"
	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig

	logger.Init(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	// Run history is optional
	var db *sql.DB
	if cfg.Database.Path != "" {
		if err := database.Init(cfg.Database.Path); err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer database.Close()
		db = database.DB
	} else {
		logger.Info("DB_PATH is empty, run history disabled")
	}

	// Initialize dependencies
	giteaClient, err := gitea.NewClientFromConfig(cfg.Gitea)
	if err != nil {
		logger.Fatalf("Failed to create Gitea client: %v", err)
	}

	m := metrics.New()

	var runStore services.RunStore
	var runLister handlers.RunLister
	var pinger handlers.Pinger
	if db != nil {
		runRepo := repositories.NewRunRepository(db)
		runStore = runRepo
		runLister = runRepo
		pinger = db
	}

	activityService := services.NewActivityService(giteaClient, cfg.Collector, runStore, m)
	exportService := services.NewExportService()

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	setupRoutes(router, cfg.Server, activityService, exportService, runLister, pinger, m)

	// Setup server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Infof("Server listening on :%s%s", cfg.Server.Port, displayBasePath(cfg.Server.BasePath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func setupRoutes(
	router *gin.Engine,
	serverCfg config.ServerConfig,
	collector handlers.ActivityCollector,
	exporter handlers.WorkbookWriter,
	runLister handlers.RunLister,
	pinger handlers.Pinger,
	m *metrics.Metrics,
) {
	// Initialize handlers
	statsHandler := handlers.NewStatsHandler(collector, exporter)
	runsHandler := handlers.NewRunsHandler(runLister)
	healthHandler := handlers.NewHealthHandler(pinger)
	notFoundHandler := handlers.NewNotFoundHandler(serverCfg.StaticDir, serverCfg.BasePath)

	base := router.Group(serverCfg.BasePath)
	{
		base.GET("/health", healthHandler.Health)
		base.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := base.Group("/api")
	{
		api.GET("/stats", statsHandler.GetStats)
		api.GET("/stats/export", statsHandler.ExportStats)
		api.GET("/repos", statsHandler.GetRepos)
		api.GET("/runs", runsHandler.ListRuns)
		api.GET("/runs/:id", runsHandler.GetRun)
	}

	if serverCfg.BasePath != "/" {
		target := serverCfg.BasePath + "/"
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, target)
		})
	}

	// Static dashboard files and JSON 404s
	router.NoRoute(notFoundHandler.NotFound)
}

func displayBasePath(basePath string) string {
	if basePath == "/" {
		return ""
	}
	return basePath
}

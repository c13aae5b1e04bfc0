package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bevops/truckplan/internal/api"
	"github.com/bevops/truckplan/internal/cache"
	"github.com/bevops/truckplan/internal/config"
	"github.com/bevops/truckplan/internal/repository"
	"github.com/bevops/truckplan/internal/repository/postgres"
	"github.com/bevops/truckplan/internal/service"
	"github.com/bevops/truckplan/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	projectionCache, err := cache.NewProjectionCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Projection cache unavailable, continuing without it")
		projectionCache = cache.NewNoopProjectionCache()
	}

	planRepo := repository.NewPlanRepository(db)
	planningService := service.NewPlanningService(planRepo, projectionCache, cfg.Planning)

	router := api.NewRouter(planningService, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting planning server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

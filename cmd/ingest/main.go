// Standalone ingest service: accepts schedule CSV uploads, archives them in
// object storage and loads them into the planning database.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bevops/truckplan/internal/config"
	"github.com/bevops/truckplan/internal/importer"
	"github.com/bevops/truckplan/internal/ingest"
	"github.com/bevops/truckplan/internal/repository"
	"github.com/bevops/truckplan/internal/repository/postgres"
	"github.com/bevops/truckplan/internal/storage"
	"github.com/bevops/truckplan/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	planRepo := repository.NewPlanRepository(db)
	imp := importer.New(planRepo, 0)
	svc := ingest.NewService(store, imp, cfg.App.UploadDir)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      ingest.NewRouter(svc),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting ingest server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down ingest server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}

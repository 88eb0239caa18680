package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terpspark/terpspark-api/internal/config"
	"github.com/terpspark/terpspark-api/internal/logger"
	"github.com/terpspark/terpspark-api/internal/server"
	"github.com/terpspark/terpspark-api/internal/storage/objectstore"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log := logger.Get()

	log.Info("Starting TerpSpark API")

	repos, err := postgres.NewContainer(cfg)
	if err != nil {
		log.Error("Failed to initialize repositories", "error", err)
		os.Exit(1)
	}

	// The API runs without image uploads when MinIO is unreachable.
	var images objectstore.Store
	if store, err := objectstore.NewMinioStore(cfg); err != nil {
		log.Warn("Object store unavailable, image uploads disabled", "error", err)
	} else {
		images = store
	}

	srv := server.New(cfg, repos, images)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("Server stopped with error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}

	if err := postgres.Close(repos.DB()); err != nil {
		log.Error("Failed to close database connection", "error", err)
	}

	log.Info("TerpSpark API stopped")
}

package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"movie-quiz/internal/config"
	"movie-quiz/internal/database"
	"movie-quiz/internal/logger"
)

// migrate prepares a MongoDB database: indexes and identifier counters.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewMongoDatabase(ctx, cfg.Mongo)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Disconnect(context.Background(), db); err != nil {
			l.Error("Failed to disconnect", zap.Error(err))
		}
	}()

	if err := database.EnsureIndexes(ctx, db); err != nil {
		l.Fatal("Failed to ensure indexes", zap.Error(err))
	}
	if err := database.EnsureCounters(ctx, db); err != nil {
		l.Fatal("Failed to ensure counters", zap.Error(err))
	}
	l.Info("Migration completed", zap.String("database", cfg.Mongo.Database))
}

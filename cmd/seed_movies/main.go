package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"movie-quiz/internal/config"
	"movie-quiz/internal/database"
	"movie-quiz/internal/logger"
)

const batchSize = 500

func main() {
	path := pflag.String("file", "configs/seed_data/movies.json", "path to the movie dump")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	seed, err := loadSeed(*path)
	if err != nil {
		log.Fatal("Failed to load seed data", zap.Error(err))
	}
	log.Info("Loaded seed data",
		zap.String("path", *path),
		zap.Int("movies", len(seed.Movies)),
		zap.Int("persons", len(seed.Persons)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.NewMongoDatabase(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Disconnect(context.Background(), db); err != nil {
			log.Error("Failed to disconnect", zap.Error(err))
		}
	}()

	if err := upsert(ctx, db.Collection(database.MoviesCollection), movieUpserts(seed.Movies)); err != nil {
		log.Fatal("Failed to seed movies", zap.Error(err))
	}
	if err := upsert(ctx, db.Collection(database.PersonsCollection), personUpserts(seed.Persons)); err != nil {
		log.Fatal("Failed to seed persons", zap.Error(err))
	}
	log.Info("Seeding completed")
}

func upsert(ctx context.Context, coll *mongo.Collection, models []mongo.WriteModel) error {
	for start := 0; start < len(models); start += batchSize {
		end := min(start+batchSize, len(models))
		res, err := coll.BulkWrite(ctx, models[start:end], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return fmt.Errorf("bulk write to %s failed: %w", coll.Name(), err)
		}
		logger.Get().Info("Seeded batch",
			zap.String("collection", coll.Name()),
			zap.Int64("upserted", res.UpsertedCount),
			zap.Int64("modified", res.ModifiedCount))
	}
	return nil
}

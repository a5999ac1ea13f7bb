package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/repository/models"
)

type mongoIdentifierRepository struct {
	collection *mongo.Collection
}

func NewIdentifierRepository(db *mongo.Database) domain.IdentifierRepository {
	return &mongoIdentifierRepository{collection: db.Collection(database.IdentifiersCollection)}
}

// NextID atomically increments the counter, creating it on first use
func (r *mongoIdentifierRepository) NextID(ctx context.Context, counter string) (int, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc models.CounterDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"name": counter}, bson.M{"$inc": bson.M{"value": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", counter, err)
	}
	return doc.Value, nil
}

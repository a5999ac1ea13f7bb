package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"movie-quiz/internal/logger"
)

// Collection names
const (
	MoviesCollection        = "movies"
	PersonsCollection       = "persons"
	QuestionsCollection     = "questions"
	SettingsCollection      = "settings"
	ToursCollection         = "quiz_tours"
	TourQuestionsCollection = "quiz_tour_questions"
	TourAnswersCollection   = "quiz_tour_answers"
	SessionsCollection      = "sessions"
	IdentifiersCollection   = "identifiers"
)

// Identifier counters
const (
	TourCounter         = "quiz_tours"
	TourQuestionCounter = "quiz_tour_questions"
)

var indexes = map[string][]mongo.IndexModel{
	MoviesCollection: {
		{Keys: bson.D{{Key: "movie_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "movie_type", Value: 1}, {Key: "production.0", Value: 1}, {Key: "year", Value: 1}}},
		{Keys: bson.D{{Key: "rating.votes_kp", Value: 1}}},
	},
	PersonsCollection: {
		{Keys: bson.D{{Key: "person_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	QuestionsCollection: {
		{Keys: bson.D{{Key: "question_uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "movie_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		// at most one pending question per user
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("username_pending_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"pending": true}),
		},
	},
	SettingsCollection: {
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ToursCollection: {
		{Keys: bson.D{{Key: "quiz_tour_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "question_ids", Value: 1}}},
	},
	TourQuestionsCollection: {
		{Keys: bson.D{{Key: "question_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "question.movie_id", Value: 1}, {Key: "question_id", Value: -1}}},
	},
	TourAnswersCollection: {
		{Keys: bson.D{{Key: "question_id", Value: 1}, {Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	},
	SessionsCollection: {
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	IdentifiersCollection: {
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
}

// EnsureIndexes creates every index the repositories rely on. Existing
// indexes with the same definition are left untouched.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range indexes {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		logger.Get().Info("Ensured indexes", zap.String("collection", collection), zap.Strings("indexes", names))
	}
	return nil
}

// EnsureCounters creates the identifier counters that do not exist yet
func EnsureCounters(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(IdentifiersCollection)
	for _, name := range []string{TourCounter, TourQuestionCounter} {
		_, err := collection.UpdateOne(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{"name": name, "value": 0}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to ensure counter %s: %w", name, err)
		}
	}
	return nil
}

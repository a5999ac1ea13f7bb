package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
)

type mongoSettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) domain.SettingsRepository {
	return &mongoSettingsRepository{collection: db.Collection(database.SettingsCollection)}
}

// Get returns the user's settings, storing the defaults on first access
func (r *mongoSettingsRepository) Get(ctx context.Context, username string) (*domain.UserSettings, error) {
	defaults := domain.DefaultUserSettings(username)
	update := bson.M{"$setOnInsert": bson.M{
		"question_settings":     defaults.QuestionSettings,
		"show_knowledge_status": defaults.ShowKnowledgeStatus,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var settings domain.UserSettings
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"username": username}, update, opts).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to get settings for %s: %w", username, err)
	}
	if settings.QuestionSettings == nil {
		settings.QuestionSettings = defaults.QuestionSettings
	}
	settings.QuestionSettings.Normalize()
	return &settings, nil
}

func (r *mongoSettingsRepository) Update(ctx context.Context, settings *domain.UserSettings) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"username": settings.Username}, settings, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update settings for %s: %w", settings.Username, err)
	}
	return nil
}

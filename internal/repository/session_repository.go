package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
)

type mongoSessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) domain.SessionRepository {
	return &mongoSessionRepository{collection: db.Collection(database.SessionsCollection)}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewError(domain.CodeSessionExists, fmt.Sprintf("session %q already exists", session.SessionID), err)
		}
		return fmt.Errorf("failed to create session %s: %w", session.SessionID, err)
	}
	return nil
}

func (r *mongoSessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	if session.QuestionSettings != nil {
		session.QuestionSettings.Normalize()
	}
	return &session, nil
}

func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"session_id": session.SessionID}, session)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", session.SessionID, err)
	}
	if result.MatchedCount == 0 {
		return domain.NewSessionNotFoundError(session.SessionID)
	}
	return nil
}

func (r *mongoSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

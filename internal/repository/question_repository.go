package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/repository/models"
)

// mongoQuestionRepository implements domain.QuestionRepository
type mongoQuestionRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewQuestionRepository(db *mongo.Database) domain.QuestionRepository {
	return &mongoQuestionRepository{
		collection: db.Collection(database.QuestionsCollection),
		now:        time.Now,
	}
}

func pendingFilter(username string) bson.M {
	return bson.M{"username": username, "pending": true}
}

func answeredFilter(username string, movieIDs []int) bson.M {
	return bson.M{
		"username": username,
		"movie_id": bson.M{"$in": intsToArray(movieIDs)},
		"correct":  bson.M{"$ne": nil},
	}
}

func (r *mongoQuestionRepository) FindPending(ctx context.Context, username string) (*domain.Question, error) {
	var doc models.QuestionDocument
	err := r.collection.FindOne(ctx, pendingFilter(username)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending question for %s: %w", username, err)
	}
	return models.ToDomainQuestion(&doc), nil
}

func (r *mongoQuestionRepository) InsertPendingIfAbsent(ctx context.Context, q *domain.Question) (*domain.Question, bool, error) {
	if !q.Pending() {
		return nil, false, fmt.Errorf("question %s is already answered", q.ID)
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": models.ToQuestionDocument(q)}

	var doc models.QuestionDocument
	err := r.collection.FindOneAndUpdate(ctx, pendingFilter(q.Username), update, opts).Decode(&doc)
	if err != nil {
		// a concurrent upsert inserted first and the partial unique index rejected ours
		if mongo.IsDuplicateKeyError(err) {
			stored, findErr := r.FindPending(ctx, q.Username)
			if findErr != nil {
				return nil, false, findErr
			}
			if stored == nil {
				return nil, false, fmt.Errorf("pending question for %s vanished after a conflicting insert: %w", q.Username, err)
			}
			return stored, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert pending question for %s: %w", q.Username, err)
	}

	stored := models.ToDomainQuestion(&doc)
	return stored, stored.ID == q.ID, nil
}

func (r *mongoQuestionRepository) ReplacePending(ctx context.Context, q *domain.Question) error {
	filter := bson.M{"question_uid": q.ID, "pending": true}
	result, err := r.collection.ReplaceOne(ctx, filter, models.ToQuestionDocument(q))
	if err != nil {
		return fmt.Errorf("failed to replace pending question %s: %w", q.ID, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNoAnswerableQuestion
	}
	return nil
}

func (r *mongoQuestionRepository) DeletePending(ctx context.Context, username string) error {
	if _, err := r.collection.DeleteMany(ctx, pendingFilter(username)); err != nil {
		return fmt.Errorf("failed to delete pending question for %s: %w", username, err)
	}
	return nil
}

func (r *mongoQuestionRepository) AnswerPending(ctx context.Context, username string, answer domain.Answer) (*domain.Question, error) {
	update := bson.M{"$set": bson.M{
		"correct":     answer.Correct,
		"answer_time": answer.AnswerTime,
		"timestamp":   r.now(),
		"pending":     false,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc models.QuestionDocument
	err := r.collection.FindOneAndUpdate(ctx, pendingFilter(username), update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoAnswerableQuestion
		}
		return nil, fmt.Errorf("failed to answer question for %s: %w", username, err)
	}
	return models.ToDomainQuestion(&doc), nil
}

func (r *mongoQuestionRepository) InsertAnswered(ctx context.Context, questions []*domain.Question) error {
	if len(questions) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(questions))
	for _, q := range questions {
		if q.Pending() {
			return fmt.Errorf("question %s has no answer", q.ID)
		}
		docs = append(docs, models.ToQuestionDocument(q))
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert answered questions: %w", err)
	}
	return nil
}

func (r *mongoQuestionRepository) FindRecentAnswered(ctx context.Context, username string, movieIDs []int, limit int) ([]domain.Question, error) {
	if len(movieIDs) == 0 || limit <= 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	return r.find(ctx, answeredFilter(username, movieIDs), opts)
}

func (r *mongoQuestionRepository) FindAnsweredForMovies(ctx context.Context, username string, movieIDs []int) ([]domain.Question, error) {
	if len(movieIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, answeredFilter(username, movieIDs), options.Find())
}

func (r *mongoQuestionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Question, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find questions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.QuestionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	questions := make([]domain.Question, len(docs))
	for i := range docs {
		questions[i] = docs[i].Question
	}
	return questions, nil
}

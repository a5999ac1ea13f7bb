package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
)

// mongoTourRepository implements domain.TourRepository
type mongoTourRepository struct {
	tours     *mongo.Collection
	questions *mongo.Collection
	answers   *mongo.Collection
}

func NewTourRepository(db *mongo.Database) domain.TourRepository {
	return &mongoTourRepository{
		tours:     db.Collection(database.ToursCollection),
		questions: db.Collection(database.TourQuestionsCollection),
		answers:   db.Collection(database.TourAnswersCollection),
	}
}

func (r *mongoTourRepository) InsertTour(ctx context.Context, tour *domain.Tour) error {
	if _, err := r.tours.InsertOne(ctx, tour); err != nil {
		return fmt.Errorf("failed to insert tour %d: %w", tour.TourID, err)
	}
	return nil
}

func (r *mongoTourRepository) GetTour(ctx context.Context, tourID int) (*domain.Tour, error) {
	var tour domain.Tour
	err := r.tours.FindOne(ctx, bson.M{"quiz_tour_id": tourID}).Decode(&tour)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tour %d: %w", tourID, err)
	}
	return &tour, nil
}

func (r *mongoTourRepository) ListTours(ctx context.Context) ([]*domain.Tour, error) {
	return r.findTours(ctx, bson.M{})
}

func (r *mongoTourRepository) FindToursByQuestionIDs(ctx context.Context, questionIDs []int) ([]*domain.Tour, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	return r.findTours(ctx, bson.M{"question_ids": bson.M{"$in": intsToArray(questionIDs)}})
}

func (r *mongoTourRepository) findTours(ctx context.Context, filter bson.M) ([]*domain.Tour, error) {
	opts := options.Find().SetSort(bson.D{{Key: "quiz_tour_id", Value: -1}})
	cursor, err := r.tours.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tours: %w", err)
	}
	defer cursor.Close(ctx)

	var tours []*domain.Tour
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}
	return tours, nil
}

func (r *mongoTourRepository) InsertTourQuestions(ctx context.Context, questions []domain.TourQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	docs := make([]interface{}, len(questions))
	for i := range questions {
		docs[i] = questions[i]
	}
	if _, err := r.questions.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert tour questions: %w", err)
	}
	return nil
}

func (r *mongoTourRepository) GetTourQuestion(ctx context.Context, questionID int) (*domain.TourQuestion, error) {
	var question domain.TourQuestion
	err := r.questions.FindOne(ctx, bson.M{"question_id": questionID}).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tour question %d: %w", questionID, err)
	}
	return &question, nil
}

func (r *mongoTourRepository) FindRecentTourQuestions(ctx context.Context, movieIDs []int, limit int) ([]domain.Question, error) {
	if len(movieIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	filter := bson.M{"question.movie_id": bson.M{"$in": intsToArray(movieIDs)}}
	opts := options.Find().SetSort(bson.D{{Key: "question_id", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent tour questions: %w", err)
	}
	defer cursor.Close(ctx)

	var tourQuestions []domain.TourQuestion
	if err := cursor.All(ctx, &tourQuestions); err != nil {
		return nil, fmt.Errorf("failed to decode tour questions: %w", err)
	}

	questions := make([]domain.Question, len(tourQuestions))
	for i := range tourQuestions {
		questions[i] = tourQuestions[i].Question
	}
	return questions, nil
}

func (r *mongoTourRepository) FindTourQuestionIDsByMovie(ctx context.Context, movieID int) ([]int, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0, "question_id": 1})
	cursor, err := r.questions.Find(ctx, bson.M{"question.movie_id": movieID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour questions of movie %d: %w", movieID, err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		QuestionID int `bson:"question_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tour question ids: %w", err)
	}

	ids := make([]int, len(docs))
	for i, doc := range docs {
		ids[i] = doc.QuestionID
	}
	return ids, nil
}

// DeleteTourQuestions removes the questions together with their answers
func (r *mongoTourRepository) DeleteTourQuestions(ctx context.Context, questionIDs []int) error {
	if len(questionIDs) == 0 {
		return nil
	}
	filter := bson.M{"question_id": bson.M{"$in": intsToArray(questionIDs)}}
	if _, err := r.questions.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete tour questions: %w", err)
	}
	if _, err := r.answers.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete tour answers: %w", err)
	}
	return nil
}

func (r *mongoTourRepository) PullQuestionIDs(ctx context.Context, questionIDs []int) error {
	if len(questionIDs) == 0 {
		return nil
	}
	ids := intsToArray(questionIDs)
	_, err := r.tours.UpdateMany(ctx,
		bson.M{"question_ids": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{"question_ids": bson.M{"$in": ids}}},
	)
	if err != nil {
		return fmt.Errorf("failed to pull question ids from tours: %w", err)
	}
	return nil
}

func (r *mongoTourRepository) DeleteEmptyTours(ctx context.Context) (int64, error) {
	result, err := r.tours.DeleteMany(ctx, bson.M{"question_ids": bson.M{"$size": 0}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete empty tours: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoTourRepository) InsertTourAnswer(ctx context.Context, answer *domain.TourAnswer) error {
	if _, err := r.answers.InsertOne(ctx, answer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewError(domain.CodeTourQuestionAnswered, "tour question is already answered", err)
		}
		return fmt.Errorf("failed to insert tour answer: %w", err)
	}
	return nil
}

func (r *mongoTourRepository) HasTourAnswer(ctx context.Context, questionID int, username string) (bool, error) {
	count, err := r.answers.CountDocuments(ctx,
		bson.M{"question_id": questionID, "username": username},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("failed to count tour answers: %w", err)
	}
	return count > 0, nil
}

func (r *mongoTourRepository) FindTourAnswers(ctx context.Context, questionIDs []int, username string) ([]domain.TourAnswer, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{"question_id": bson.M{"$in": intsToArray(questionIDs)}}
	if username != "" {
		filter["username"] = username
	}
	return r.findAnswers(ctx, filter)
}

func (r *mongoTourRepository) FindUserTourAnswers(ctx context.Context, username string) ([]domain.TourAnswer, error) {
	return r.findAnswers(ctx, bson.M{"username": username})
}

func (r *mongoTourRepository) findAnswers(ctx context.Context, filter bson.M) ([]domain.TourAnswer, error) {
	cursor, err := r.answers.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour answers: %w", err)
	}
	defer cursor.Close(ctx)

	var answers []domain.TourAnswer
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode tour answers: %w", err)
	}
	return answers, nil
}

func (r *mongoTourRepository) ListTourPlayers(ctx context.Context) ([]string, error) {
	values, err := r.answers.Distinct(ctx, "username", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tour players: %w", err)
	}

	players := make([]string, 0, len(values))
	for _, value := range values {
		if username, ok := value.(string); ok {
			players = append(players, username)
		}
	}
	return players, nil
}

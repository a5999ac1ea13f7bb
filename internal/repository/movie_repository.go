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
)

var summaryProjection = bson.M{
	"_id":        0,
	"movie_id":   1,
	"name":       1,
	"movie_type": 1,
	"production": 1,
	"year":       1,
}

// mongoMovieRepository implements domain.MovieRepository
type mongoMovieRepository struct {
	movies  *mongo.Collection
	persons *mongo.Collection
	now     func() time.Time
}

func NewMovieRepository(db *mongo.Database) domain.MovieRepository {
	return &mongoMovieRepository{
		movies:  db.Collection(database.MoviesCollection),
		persons: db.Collection(database.PersonsCollection),
		now:     time.Now,
	}
}

func (r *mongoMovieRepository) FindCandidates(ctx context.Context, settings *domain.QuestionSettings) ([]domain.MovieSummary, error) {
	if settings.Empty() {
		return nil, nil
	}

	cursor, err := r.movies.Find(ctx, CandidateFilter(settings, r.now()), options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate movies: %w", err)
	}
	defer cursor.Close(ctx)

	var movies []domain.MovieSummary
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode candidate movies: %w", err)
	}
	return movies, nil
}

func (r *mongoMovieRepository) GetMovie(ctx context.Context, movieID int) (*domain.Movie, error) {
	var movie domain.Movie
	err := r.movies.FindOne(ctx, bson.M{"movie_id": movieID}).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}
	return &movie, nil
}

func (r *mongoMovieRepository) GetMovies(ctx context.Context, movieIDs []int) ([]*domain.Movie, error) {
	if len(movieIDs) == 0 {
		return nil, nil
	}

	cursor, err := r.movies.Find(ctx, bson.M{"movie_id": bson.M{"$in": intsToArray(movieIDs)}})
	if err != nil {
		return nil, fmt.Errorf("failed to find movies: %w", err)
	}
	defer cursor.Close(ctx)

	var movies []*domain.Movie
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	return movies, nil
}

func (r *mongoMovieRepository) GetPersons(ctx context.Context, personIDs []int) (map[int]domain.Person, error) {
	persons := make(map[int]domain.Person, len(personIDs))
	if len(personIDs) == 0 {
		return persons, nil
	}

	cursor, err := r.persons.Find(ctx, bson.M{"person_id": bson.M{"$in": intsToArray(personIDs)}})
	if err != nil {
		return nil, fmt.Errorf("failed to find persons: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var person domain.Person
		if err := cursor.Decode(&person); err != nil {
			return nil, fmt.Errorf("failed to decode person: %w", err)
		}
		persons[person.PersonID] = person
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}
	return persons, nil
}

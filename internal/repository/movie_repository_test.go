package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"movie-quiz/internal/domain"
)

const moviesNS = "test.movies"

func TestCandidateFilter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	settings := domain.NewQuestionSettings(
		map[domain.MovieType]float64{domain.MovieTypeMovie: 1, domain.MovieTypeAnime: 1},
		map[domain.Production]float64{domain.ProductionRussian: 1},
		map[domain.YearRange]float64{{Start: 2020}: 1},
		map[domain.QuestionType]float64{domain.QuestionTypeByImage: 1, domain.QuestionTypeByCharacters: 1},
		domain.VotesRange{Min: 1000},
		false, 0,
	)

	filter := CandidateFilter(settings, now)

	assert.Equal(t, bson.M{"$in": bson.A{"movie", "anime"}}, filter["movie_type"])
	assert.Equal(t, bson.M{"$in": bson.A{"russian"}}, filter["production.0"])
	assert.Equal(t, bson.M{"$in": bson.A{2020, 2021, 2022, 2023, 2024}}, filter["year"])
	assert.Equal(t, bson.M{"$gte": 1000}, filter["rating.votes_kp"])
	assert.Equal(t, bson.A{
		bson.M{"image_urls.0": bson.M{"$exists": true}},
		bson.M{"actors.2": bson.M{"$exists": true}},
	}, filter["$or"])
}

func TestCandidateFilter_OpenVotes(t *testing.T) {
	filter := CandidateFilter(domain.DefaultQuestionSettings(), time.Now())
	assert.NotContains(t, filter, "rating.votes_kp")
	assert.Len(t, filter["$or"], len(domain.QuestionTypes))
}

func TestMovieRepository(t *testing.T) {
	mt := newMockT(t)

	mt.Run("find candidates", func(mt *mtest.T) {
		repo := NewMovieRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, moviesNS, mtest.FirstBatch,
			bson.D{{Key: "movie_id", Value: 1}, {Key: "name", Value: "Брат"}, {Key: "movie_type", Value: "movie"}, {Key: "production", Value: bson.A{"russian"}}, {Key: "year", Value: 1997}},
			bson.D{{Key: "movie_id", Value: 2}, {Key: "name", Value: "Брат 2"}, {Key: "movie_type", Value: "movie"}, {Key: "production", Value: bson.A{"russian"}}, {Key: "year", Value: 2000}},
		))

		movies, err := repo.FindCandidates(context.Background(), domain.DefaultQuestionSettings())
		require.NoError(mt, err)
		require.Len(mt, movies, 2)
		assert.Equal(mt, "Брат 2", movies[1].Name)
		assert.Equal(mt, domain.ProductionRussian, movies[0].MainProduction())

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		_, hasProjection := started.Command.Lookup("projection").DocumentOK()
		assert.True(mt, hasProjection)
	})

	mt.Run("empty settings skip the query", func(mt *mtest.T) {
		repo := NewMovieRepository(mt.DB)
		settings := domain.DefaultQuestionSettings()
		settings.QuestionTypes = map[domain.QuestionType]float64{}

		movies, err := repo.FindCandidates(context.Background(), settings)
		require.NoError(mt, err)
		assert.Empty(mt, movies)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("get movie", func(mt *mtest.T) {
		repo := NewMovieRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, moviesNS, mtest.FirstBatch, bson.D{
			{Key: "movie_id", Value: 1},
			{Key: "name", Value: "Брат"},
			{Key: "slogan", Value: "Сила в правде"},
			{Key: "image_urls", Value: bson.A{"/1.jpg"}},
			{Key: "actors", Value: bson.A{bson.D{{Key: "person_id", Value: 7}, {Key: "description", Value: "Данила"}}}},
		}))

		movie, err := repo.GetMovie(context.Background(), 1)
		require.NoError(mt, err)
		require.NotNil(mt, movie)
		assert.Equal(mt, "Сила в правде", movie.Slogan)
		assert.Equal(mt, []domain.Actor{{PersonID: 7, Description: "Данила"}}, movie.Actors)
	})

	mt.Run("missing movie", func(mt *mtest.T) {
		repo := NewMovieRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, moviesNS, mtest.FirstBatch))

		movie, err := repo.GetMovie(context.Background(), 404)
		require.NoError(mt, err)
		assert.Nil(mt, movie)
	})

	mt.Run("get persons", func(mt *mtest.T) {
		repo := NewMovieRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.persons", mtest.FirstBatch,
			bson.D{{Key: "person_id", Value: 7}, {Key: "name", Value: "Сергей Бодров"}},
			bson.D{{Key: "person_id", Value: 8}, {Key: "name", Value: "Виктор Сухоруков"}},
		))

		persons, err := repo.GetPersons(context.Background(), []int{7, 8, 9})
		require.NoError(mt, err)
		assert.Len(mt, persons, 2)
		assert.Equal(mt, "Сергей Бодров", persons[7].Name)
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		repo := NewMovieRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query", Name: "BadValue"}))

		_, err := repo.GetMovies(context.Background(), []int{1})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to find movies")
	})
}

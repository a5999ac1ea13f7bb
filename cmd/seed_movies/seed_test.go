package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"movie-quiz/internal/domain"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSeed(t *testing.T) {
	path := writeSeed(t, `{
		"movies": [{"movie_id": 1, "name": "Brother", "movie_type": "movie", "year": 1997, "production": ["russian"]}],
		"persons": [{"person_id": 7, "name": "Sergei Bodrov"}]
	}`)

	seed, err := loadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Movies, 1)
	assert.Equal(t, "Brother", seed.Movies[0].Name)
	assert.Equal(t, 1997, seed.Movies[0].Year)
	require.Len(t, seed.Persons, 1)
	assert.Equal(t, 7, seed.Persons[0].PersonID)
}

func TestLoadSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"movies": [`},
		{"missing id", `{"movies": [{"name": "x"}]}`},
		{"missing name", `{"movies": [{"movie_id": 2}]}`},
		{"duplicate", `{"movies": [{"movie_id": 2, "name": "a"}, {"movie_id": 2, "name": "b"}]}`},
		{"bad person", `{"persons": [{"person_id": 0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSeed(writeSeed(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := loadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestUpserts(t *testing.T) {
	models := movieUpserts([]domain.Movie{{MovieID: 1, Name: "a"}, {MovieID: 2, Name: "b"}})
	require.Len(t, models, 2)
	replace, ok := models[0].(*mongo.ReplaceOneModel)
	require.True(t, ok)
	require.NotNil(t, replace.Upsert)
	assert.True(t, *replace.Upsert)

	assert.Len(t, personUpserts([]domain.Person{{PersonID: 3}}), 1)
	assert.Empty(t, personUpserts(nil))
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"movie-quiz/internal/domain"
)

// seedFile is the layout of the movie dump consumed by the seeder
type seedFile struct {
	Movies  []domain.Movie  `json:"movies"`
	Persons []domain.Person `json:"persons"`
}

func loadSeed(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed file %s: %w", path, err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *seedFile) validate() error {
	seen := make(map[int]struct{}, len(s.Movies))
	for i, movie := range s.Movies {
		if movie.MovieID <= 0 {
			return fmt.Errorf("movie #%d: movie_id must be positive", i)
		}
		if movie.Name == "" {
			return fmt.Errorf("movie %d: name is empty", movie.MovieID)
		}
		if _, ok := seen[movie.MovieID]; ok {
			return fmt.Errorf("movie %d: duplicate movie_id", movie.MovieID)
		}
		seen[movie.MovieID] = struct{}{}
	}
	for i, person := range s.Persons {
		if person.PersonID <= 0 {
			return fmt.Errorf("person #%d: person_id must be positive", i)
		}
	}
	return nil
}

func movieUpserts(movies []domain.Movie) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(movies))
	for _, movie := range movies {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"movie_id": movie.MovieID}).
			SetReplacement(movie).
			SetUpsert(true))
	}
	return models
}

func personUpserts(persons []domain.Person) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(persons))
	for _, person := range persons {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"person_id": person.PersonID}).
			SetReplacement(person).
			SetUpsert(true))
	}
	return models
}

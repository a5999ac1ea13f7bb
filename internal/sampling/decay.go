package sampling

import (
	"math"

	"movie-quiz/internal/domain"
)

// DecayWeight is the recency weight of an item first seen at position p of a
// most-recent-first history.
func DecayWeight(position int, alpha float64) float64 {
	return 1 - math.Pow(alpha, float64(position+1))
}

// DecayWeights returns, for every pool movie, the recency weight of its most
// recent occurrence in history. Unseen movies get 1.
func DecayWeights(pool []domain.MovieSummary, history []domain.Question, alpha float64) []float64 {
	positions := make(map[int]int, len(history))
	for position, question := range history {
		if _, seen := positions[question.MovieID]; !seen {
			positions[question.MovieID] = position
		}
	}

	weights := make([]float64, len(pool))
	for i, movie := range pool {
		position, seen := positions[movie.MovieID]
		if !seen {
			weights[i] = 1
			continue
		}
		weights[i] = DecayWeight(position, alpha)
	}
	return weights
}

// ResurfaceWeights weights n missed questions by their index in the
// most-recent-first missed list. Older misses get a larger weight, never 0.
func ResurfaceWeights(n int, alpha float64) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = DecayWeight(i, alpha)
	}
	return weights
}

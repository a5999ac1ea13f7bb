package sampling

import (
	"time"

	"movie-quiz/internal/domain"
)

type category struct {
	movieType  domain.MovieType
	production domain.Production
	years      domain.YearRange
}

// BalanceWeights computes the per-movie balance weight. Every movie is
// weighted by the settings weight of its type, main production and year
// bucket, divided by the number of pool movies sharing that exact
// combination. Sampling proportionally then reproduces each dimension's
// configured marginal distribution whenever every combination is present.
// Movies outside the configured values get weight 0.
func BalanceWeights(pool []domain.MovieSummary, settings *domain.QuestionSettings, now time.Time) []float64 {
	possibleYears := settings.PossibleYears(now)

	categories := make([]category, len(pool))
	valid := make([]bool, len(pool))
	counts := make(map[category]int)
	for i, movie := range pool {
		years, ok := possibleYears[movie.Year]
		if !ok {
			continue
		}
		categories[i] = category{movieType: movie.MovieType, production: movie.MainProduction(), years: years}
		valid[i] = true
		counts[categories[i]]++
	}

	weights := make([]float64, len(pool))
	for i := range pool {
		if !valid[i] {
			continue
		}
		c := categories[i]
		weights[i] = settings.MovieTypes[c.movieType] *
			settings.Production[c.production] *
			settings.Years[c.years] /
			float64(counts[c])
	}
	return weights
}

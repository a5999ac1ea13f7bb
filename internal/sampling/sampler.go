package sampling

import (
	"math/rand/v2"
	"sync"
	"time"

	"movie-quiz/internal/domain"
)

// Sampler draws movies by balance and recency weights. A single Sampler is
// safe for concurrent use.
type Sampler struct {
	config Config
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a sampler with a randomly seeded source
func NewSampler(config Config) *Sampler {
	return NewSeededSampler(config, rand.Uint64())
}

// NewSeededSampler creates a sampler whose draws are reproducible for a seed
func NewSeededSampler(config Config, seed uint64) *Sampler {
	return &Sampler{
		config: config,
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Sampler) Config() Config {
	return s.config
}

func (s *Sampler) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Sampler) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Choice draws one index proportionally to weights; -1 when none is positive
func (s *Sampler) Choice(weights []float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WeightedChoice(s.rng, weights)
}

// Weights combines the balance weight and the recency weight of every pool
// movie.
func (s *Sampler) Weights(pool []domain.MovieSummary, history []domain.Question, settings *domain.QuestionSettings) []float64 {
	weights := BalanceWeights(pool, settings, s.now())
	decay := DecayWeights(pool, history, s.config.Alpha)
	for i := range weights {
		weights[i] *= decay[i]
	}
	return weights
}

// SampleMovies draws up to count distinct movies. It returns fewer when the
// pool has fewer movies with a positive weight, and nothing when all
// weights are zero.
func (s *Sampler) SampleMovies(pool []domain.MovieSummary, history []domain.Question, settings *domain.QuestionSettings, count int) []domain.MovieSummary {
	weights := s.Weights(pool, history, settings)

	s.mu.Lock()
	indices := WeightedSample(s.rng, weights, count)
	s.mu.Unlock()

	movies := make([]domain.MovieSummary, len(indices))
	for i, index := range indices {
		movies[i] = pool[index]
	}
	return movies
}

// SampleMovie draws one movie; ok is false when nothing is eligible
func (s *Sampler) SampleMovie(pool []domain.MovieSummary, history []domain.Question, settings *domain.QuestionSettings) (domain.MovieSummary, bool) {
	movies := s.SampleMovies(pool, history, settings, 1)
	if len(movies) == 0 {
		return domain.MovieSummary{}, false
	}
	return movies[0], true
}

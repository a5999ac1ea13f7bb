package service

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sort"

	"go.uber.org/zap"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
	"movie-quiz/internal/question"
	"movie-quiz/internal/sampling"
	"movie-quiz/internal/util"
)

// a letter or length group must exceed the tour size by this factor
const groupReserve = 1.2

// stairs start at most this many letters above the shortest name
const stairsStartSpread = 4

// letterPositions orders cyrillic and latin first letters for alphabet tours
var letterPositions = map[string]int{
	"а": 1, "a": 1, "б": 2, "b": 2, "в": 3, "c": 3, "г": 4, "d": 4, "д": 5, "e": 5, "е": 6, "f": 6,
	"ё": 7, "g": 7, "ж": 8, "h": 8, "з": 9, "i": 9, "и": 10, "j": 10, "й": 11, "k": 11, "к": 12, "l": 12,
	"л": 13, "m": 13, "м": 14, "n": 14, "н": 15, "o": 15, "о": 16, "p": 16, "п": 17, "q": 17, "р": 18, "r": 18,
	"с": 19, "s": 19, "т": 20, "t": 20, "у": 21, "u": 21, "ф": 22, "v": 22, "х": 23, "w": 23, "ц": 24, "x": 24,
	"ч": 25, "y": 25, "ш": 26, "z": 26, "щ": 27, "ъ": 28, "ы": 29, "ь": 30, "э": 31, "ю": 32, "я": 33,
}

// chainLetters continues a chain ending in a latin letter with the
// cyrillic letter that sounds alike.
var chainLetters = map[string]string{
	"a": "а", "b": "б", "v": "в", "g": "г", "d": "д", "e": "е", "j": "ж", "z": "з", "i": "и", "k": "к",
	"l": "л", "m": "м", "n": "н", "o": "о", "p": "п", "r": "р", "s": "с", "t": "т", "u": "у", "f": "ф", "h": "х",
}

// ChainLetter maps the last letter of a name to the first letter the next
// name of a chain tour must start with.
func ChainLetter(name string) string {
	letter := util.LastLetter(name)
	if mapped, ok := chainLetters[letter]; ok {
		return mapped
	}
	return letter
}

// errDeadEnd stops a tour whose structural rule cannot be satisfied
var errDeadEnd = errors.New("tour generation dead end")

// TourGenerator assembles the question sequences of tours
type TourGenerator struct {
	movies    domain.MovieRepository
	sampler   *sampling.Sampler
	generator *question.Generator
}

func NewTourGenerator(movies domain.MovieRepository, sampler *sampling.Sampler) *TourGenerator {
	return &TourGenerator{
		movies:    movies,
		sampler:   sampler,
		generator: question.NewGenerator(sampler),
	}
}

// tourRun is the mutable state of one generation
type tourRun struct {
	g        *TourGenerator
	ctx      context.Context
	settings *domain.QuestionSettings
	history  []domain.Question
	picked   []string
	out      []*domain.Question
}

// Generate builds count questions following the rule of tourType. History
// is the recent tour questions, most recent first. It returns nil, nil
// when the pool cannot satisfy the rule.
func (g *TourGenerator) Generate(ctx context.Context, tourType domain.TourType, pool []domain.MovieSummary, history []domain.Question, settings *domain.QuestionSettings, count int) ([]*domain.Question, error) {
	run := &tourRun{
		g:        g,
		ctx:      ctx,
		settings: settings,
		history:  append([]domain.Question(nil), history...),
	}

	var err error
	switch tourType {
	case domain.TourTypeRegular:
		err = run.distinct(pool, count)
	case domain.TourTypeAlphabet:
		err = run.alphabet(pool, count)
	case domain.TourTypeStairs:
		err = run.stairs(pool, count)
	case domain.TourTypeLetter:
		err = grouped(run, pool, count, util.FirstLetter)
	case domain.TourTypeNLetters:
		err = grouped(run, pool, count, util.NameLength)
	case domain.TourTypeMiraclesField:
		err = run.distinct(filterMovies(pool, func(m domain.MovieSummary) bool { return util.IsMiraclesFieldName(m.Name) }), count)
	case domain.TourTypeChain:
		err = run.chain(pool, count)
	default:
		return nil, domain.NewInvalidInputError("unknown tour type " + string(tourType))
	}

	if errors.Is(err, errDeadEnd) {
		logger.Get().Info("TourGenerator: pool cannot satisfy tour", zap.String("tour_type", string(tourType)), zap.Int("count", count))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run.out, nil
}

// pick samples one movie from candidates, generates its question and
// records it in the working history.
func (r *tourRun) pick(candidates []domain.MovieSummary) (domain.MovieSummary, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		summary, ok := r.g.sampler.SampleMovie(candidates, r.history, r.settings)
		if !ok {
			return domain.MovieSummary{}, errDeadEnd
		}

		movie, persons, err := loadMovie(r.ctx, r.g.movies, summary.MovieID)
		if err != nil {
			return domain.MovieSummary{}, err
		}
		if movie != nil {
			q, err := r.g.generator.Generate(movie, persons, "", r.settings)
			if err == nil {
				r.out = append(r.out, q)
				r.history = append([]domain.Question{*q}, r.history...)
				return summary, nil
			}
			if !errors.Is(err, question.ErrNoApplicableType) {
				return domain.MovieSummary{}, domain.NewInternalError("failed to generate tour question", err)
			}
		}
		candidates = withoutMovie(candidates, summary.MovieID)
	}
	return domain.MovieSummary{}, errDeadEnd
}

// excludeSimilar remembers the picked name and drops candidates named alike
func (r *tourRun) excludeSimilar(picked domain.MovieSummary, candidates []domain.MovieSummary) []domain.MovieSummary {
	r.picked = append(r.picked, util.SimplifyName(picked.Name))
	threshold := r.g.sampler.Config().SimilarityThreshold
	return filterMovies(candidates, func(m domain.MovieSummary) bool {
		return !util.IsSimilarName(m.Name, r.picked, threshold)
	})
}

// distinct picks movies whose names do not resemble each other
func (r *tourRun) distinct(candidates []domain.MovieSummary, count int) error {
	for i := 0; i < count; i++ {
		picked, err := r.pick(candidates)
		if err != nil {
			return err
		}
		candidates = r.excludeSimilar(picked, candidates)
	}
	return nil
}

func (r *tourRun) alphabet(pool []domain.MovieSummary, count int) error {
	letters := make(map[int]string, len(pool))
	candidates := filterMovies(pool, func(m domain.MovieSummary) bool {
		letter := util.FirstLetter(m.Name)
		letters[m.MovieID] = letter
		_, ok := letterPositions[letter]
		return ok
	})

	used := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		picked, err := r.pick(candidates)
		if err != nil {
			return err
		}
		used[letters[picked.MovieID]] = struct{}{}
		candidates = filterMovies(candidates, func(m domain.MovieSummary) bool {
			_, taken := used[letters[m.MovieID]]
			return !taken
		})
	}

	sort.SliceStable(r.out, func(i, j int) bool {
		return letterPositions[letters[r.out[i].MovieID]] < letterPositions[letters[r.out[j].MovieID]]
	})
	return nil
}

func (r *tourRun) stairs(pool []domain.MovieSummary, count int) error {
	if len(pool) == 0 {
		return errDeadEnd
	}
	groups := groupMovies(pool, util.NameLength)

	shortest := -1
	for length := range groups {
		if shortest < 0 || length < shortest {
			shortest = length
		}
	}

	start := shortest + r.g.sampler.IntN(stairsStartSpread)
	for i := 0; i < count; i++ {
		if _, err := r.pick(groups[start+i]); err != nil {
			return err
		}
	}
	return nil
}

// grouped plays a distinct-names tour inside one random group that is
// large enough.
func grouped[K cmp.Ordered](r *tourRun, pool []domain.MovieSummary, count int, key func(name string) K) error {
	groups := groupMovies(pool, key)

	var large [][]domain.MovieSummary
	for _, keyValue := range sortedKeys(groups) {
		if float64(len(groups[keyValue])) >= float64(count)*groupReserve {
			large = append(large, groups[keyValue])
		}
	}
	if len(large) == 0 {
		return errDeadEnd
	}
	return r.distinct(large[r.g.sampler.IntN(len(large))], count)
}

func (r *tourRun) chain(pool []domain.MovieSummary, count int) error {
	groups := groupMovies(pool, util.FirstLetter)
	ends := make(map[int]string, len(pool))
	for _, movie := range pool {
		ends[movie.MovieID] = ChainLetter(movie.Name)
	}

	// a movie is usable only if some movie can follow it
	dead := make(map[int]struct{})
	for _, movie := range pool {
		if len(groups[ends[movie.MovieID]]) == 0 {
			dead[movie.MovieID] = struct{}{}
		}
	}
	for letter, movies := range groups {
		groups[letter] = filterMovies(movies, func(m domain.MovieSummary) bool {
			_, isDead := dead[m.MovieID]
			return !isDead
		})
	}

	letters := sortedKeys(groups)
	weights := make([]float64, len(letters))
	for i, letter := range letters {
		weights[i] = float64(len(groups[letter]))
	}
	index := r.g.sampler.Choice(weights)
	if index < 0 {
		return errDeadEnd
	}

	letter := letters[index]
	for i := 0; i < count; i++ {
		picked, err := r.pick(groups[letter])
		if err != nil {
			return err
		}
		letter = ends[picked.MovieID]
		groups[letter] = r.excludeSimilar(picked, groups[letter])
	}
	return nil
}

func groupMovies[K cmp.Ordered](pool []domain.MovieSummary, key func(name string) K) map[K][]domain.MovieSummary {
	groups := make(map[K][]domain.MovieSummary)
	for _, movie := range pool {
		k := key(movie.Name)
		groups[k] = append(groups[k], movie)
	}
	return groups
}

// sortedKeys orders group keys so seeded runs are reproducible
func sortedKeys[K cmp.Ordered](groups map[K][]domain.MovieSummary) []K {
	return slices.Sorted(maps.Keys(groups))
}

func filterMovies(pool []domain.MovieSummary, keep func(domain.MovieSummary) bool) []domain.MovieSummary {
	result := make([]domain.MovieSummary, 0, len(pool))
	for _, movie := range pool {
		if keep(movie) {
			result = append(result, movie)
		}
	}
	return result
}

package question

import (
	"errors"
	"fmt"
	"time"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/sampling"
	"movie-quiz/internal/util"
)

const (
	maxActors     = 10
	minCharacters = 3
	maxCharacters = 5
)

// ErrNoApplicableType is returned when a movie has content for none of the
// question types enabled in the settings.
var ErrNoApplicableType = errors.New("question: no enabled question type applies to the movie")

// ErrTypeUnsupported is returned by Update when the movie lost the content
// the question type shows.
var ErrTypeUnsupported = errors.New("question: movie no longer supports the question type")

type variant struct {
	suffix string
	// fill sets the variant payload of a new question
	fill func(g *Generator, q *domain.Question, movie *domain.Movie, persons map[int]domain.Person, settings *domain.QuestionSettings)
	// refresh re-derives the payload of an issued question from the current movie
	refresh func(g *Generator, q *domain.Question, movie *domain.Movie, persons map[int]domain.Person, settings *domain.QuestionSettings)
}

var variants = map[domain.QuestionType]variant{
	domain.QuestionTypeBySlogan: {
		suffix:  " по слогану",
		fill:    fillSlogan,
		refresh: fillSlogan,
	},
	domain.QuestionTypeByShortDescription: {
		suffix:  " по короткому описанию",
		fill:    fillShortDescription,
		refresh: fillShortDescription,
	},
	domain.QuestionTypeByDescription: {
		suffix:  " по описанию",
		fill:    fillDescription,
		refresh: fillDescription,
	},
	domain.QuestionTypeByImage: {
		suffix:  " по кадру",
		fill:    fillImage,
		refresh: refreshImage,
	},
	domain.QuestionTypeByActors: {
		suffix:  " по актёрам",
		fill:    fillActors,
		refresh: fillActors,
	},
	domain.QuestionTypeByCharacters: {
		suffix:  " по именам персонажей",
		fill:    fillCharacters,
		refresh: func(*Generator, *domain.Question, *domain.Movie, map[int]domain.Person, *domain.QuestionSettings) {},
	},
}

// Generator materializes question variants for movies
type Generator struct {
	rng   sampling.Random
	now   func() time.Time
	newID func() string
}

func NewGenerator(rng sampling.Random) *Generator {
	return &Generator{
		rng:   rng,
		now:   time.Now,
		newID: util.NewULID,
	}
}

// Generate picks a question type supported by the movie, weighted by the
// settings, and builds a new unanswered question.
func (g *Generator) Generate(movie *domain.Movie, persons map[int]domain.Person, username string, settings *domain.QuestionSettings) (*domain.Question, error) {
	supported := movie.QuestionTypes()
	weights := make([]float64, len(supported))
	for i, questionType := range supported {
		weights[i] = settings.QuestionTypes[questionType]
	}
	index := sampling.WeightedChoice(g.rng, weights)
	if index < 0 {
		return nil, fmt.Errorf("%w: movie %d", ErrNoApplicableType, movie.MovieID)
	}

	questionType := supported[index]
	v, ok := variants[questionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownQuestionType, questionType)
	}

	q := &domain.Question{
		ID:        g.newID(),
		Type:      questionType,
		Username:  username,
		MovieID:   movie.MovieID,
		Title:     movie.QuestionTitle(v.suffix),
		Answer:    movie.QuestionAnswer(),
		Timestamp: g.now(),
	}
	v.fill(g, q, movie, persons, settings)
	return q, nil
}

// Update refreshes the payload of an issued question after its movie
// changed. It keeps the id, type, answer state and timestamp, and is a
// no-op for an unchanged movie. The question is left untouched when the
// movie no longer supports its type.
func (g *Generator) Update(q *domain.Question, movie *domain.Movie, persons map[int]domain.Person, settings *domain.QuestionSettings) error {
	v, ok := variants[q.Type]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownQuestionType, q.Type)
	}
	if !movie.SupportsQuestionType(q.Type) {
		return fmt.Errorf("%w: movie %d, %s", ErrTypeUnsupported, movie.MovieID, q.Type)
	}
	q.Title = movie.QuestionTitle(v.suffix)
	q.Answer = movie.QuestionAnswer()
	v.refresh(g, q, movie, persons, settings)
	return nil
}

// PersonIDs lists the persons a by-actors question about the movie shows
func PersonIDs(movie *domain.Movie) []int {
	actors := movie.Actors
	if len(actors) > maxActors {
		actors = actors[:maxActors]
	}
	ids := make([]int, len(actors))
	for i, actor := range actors {
		ids[i] = actor.PersonID
	}
	return ids
}

func fillSlogan(_ *Generator, q *domain.Question, movie *domain.Movie, _ map[int]domain.Person, _ *domain.QuestionSettings) {
	q.Slogan = movie.Slogan
}

func fillDescription(_ *Generator, q *domain.Question, movie *domain.Movie, _ map[int]domain.Person, _ *domain.QuestionSettings) {
	q.Description = copySpoilerText(movie.Description)
}

func fillShortDescription(_ *Generator, q *domain.Question, movie *domain.Movie, _ map[int]domain.Person, _ *domain.QuestionSettings) {
	q.Description = copySpoilerText(movie.ShortDescription)
}

func copySpoilerText(text domain.SpoilerText) *domain.SpoilerText {
	return &domain.SpoilerText{
		Text:     text.Text,
		Spoilers: append([]domain.Spoiler(nil), text.Spoilers...),
	}
}

func fillImage(g *Generator, q *domain.Question, movie *domain.Movie, _ map[int]domain.Person, _ *domain.QuestionSettings) {
	q.ImageURL = movie.RandomImageURL(g.rng)
}

func refreshImage(g *Generator, q *domain.Question, movie *domain.Movie, persons map[int]domain.Person, settings *domain.QuestionSettings) {
	if movie.HasImage(q.ImageURL) {
		return
	}
	fillImage(g, q, movie, persons, settings)
}

// fillActors shows the top billed actors in reverse order, so the leads come last
func fillActors(_ *Generator, q *domain.Question, movie *domain.Movie, persons map[int]domain.Person, settings *domain.QuestionSettings) {
	ids := PersonIDs(movie)
	actors := make([]domain.Person, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if person, ok := persons[ids[i]]; ok {
			actors = append(actors, person)
		}
	}
	q.Actors = actors
	q.HideActorPhotos = settings.HideActorPhotos
}

func fillCharacters(g *Generator, q *domain.Question, movie *domain.Movie, _ map[int]domain.Person, _ *domain.QuestionSettings) {
	characters := movie.Characters()
	count := minCharacters + g.rng.IntN(maxCharacters-minCharacters+1)
	if count > len(characters) {
		count = len(characters)
	}
	q.Characters = append([]string(nil), characters[:count]...)
}

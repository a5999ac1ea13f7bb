package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"movie-quiz/internal/util"
)

const (
	minQuestionYear = 1900

	DefaultRepeatIncorrectProbability = 0.04
)

// YearRange is a year bucket; a zero bound is open
type YearRange struct {
	Start int `bson:"start_year" json:"start_year"`
	End   int `bson:"end_year" json:"end_year"`
}

// QuestionYears are the year buckets offered to users
var QuestionYears = []YearRange{
	{End: 1979},
	{Start: 1980, End: 1989},
	{Start: 1990, End: 1999},
	{Start: 2000, End: 2009},
	{Start: 2010, End: 2014},
	{Start: 2015, End: 2019},
	{Start: 2020},
}

// ParseYearRange parses "start-end" keys where either side may be empty
func ParseYearRange(key string) (YearRange, error) {
	start, end, found := strings.Cut(key, "-")
	if !found {
		return YearRange{}, fmt.Errorf("invalid year range %q", key)
	}

	var years YearRange
	var err error
	if start = strings.TrimSpace(start); start != "" {
		if years.Start, err = strconv.Atoi(start); err != nil {
			return YearRange{}, fmt.Errorf("invalid year range start %q: %w", key, err)
		}
	}
	if end = strings.TrimSpace(end); end != "" {
		if years.End, err = strconv.Atoi(end); err != nil {
			return YearRange{}, fmt.Errorf("invalid year range end %q: %w", key, err)
		}
	}
	return years, nil
}

func (y YearRange) String() string {
	var start, end string
	if y.Start != 0 {
		start = strconv.Itoa(y.Start)
	}
	if y.End != 0 {
		end = strconv.Itoa(y.End)
	}
	return start + "-" + end
}

// Bounds resolves open ends against the minimum year and the current year
func (y YearRange) Bounds(now time.Time) (int, int) {
	start, end := y.Start, y.End
	if start == 0 {
		start = minQuestionYear
	}
	if end == 0 {
		end = now.Year()
	}
	return start, end
}

// VotesRange bounds the vote count of eligible movies; zero bounds are open
type VotesRange struct {
	Min int `bson:"min" json:"min"`
	Max int `bson:"max" json:"max"`
}

// YearWeight is the persisted form of one year bucket weight
type YearWeight struct {
	YearRange `bson:",inline"`
	Value     float64 `bson:"value" json:"value"`
}

// QuestionSettings configures which movies and question variants a user is
// asked about. Each dimension maps a value to a weight; after Normalize the
// weights of a dimension are positive and sum to one.
type QuestionSettings struct {
	AnswerTime                 float64                  `bson:"answer_time" json:"answer_time"`
	MovieTypes                 map[MovieType]float64    `bson:"movie_types" json:"movie_types"`
	Production                 map[Production]float64   `bson:"production" json:"production"`
	Votes                      VotesRange               `bson:"votes" json:"votes"`
	Years                      map[YearRange]float64    `bson:"-" json:"-"`
	YearWeights                []YearWeight             `bson:"years" json:"years"`
	QuestionTypes              map[QuestionType]float64 `bson:"question_types" json:"question_types"`
	HideActorPhotos            bool                     `bson:"hide_actor_photos" json:"hide_actor_photos"`
	RepeatIncorrectProbability float64                  `bson:"repeat_incorrect_probability" json:"repeat_incorrect_probability"`
}

// NewQuestionSettings builds normalized settings from raw weights
func NewQuestionSettings(
	movieTypes map[MovieType]float64,
	production map[Production]float64,
	years map[YearRange]float64,
	questionTypes map[QuestionType]float64,
	votes VotesRange,
	hideActorPhotos bool,
	repeatIncorrectProbability float64,
) *QuestionSettings {
	settings := &QuestionSettings{
		MovieTypes:                 movieTypes,
		Production:                 production,
		Years:                      years,
		QuestionTypes:              questionTypes,
		Votes:                      votes,
		HideActorPhotos:            hideActorPhotos,
		RepeatIncorrectProbability: repeatIncorrectProbability,
	}
	settings.Normalize()
	return settings
}

// DefaultQuestionSettings weights every value of every dimension equally
func DefaultQuestionSettings() *QuestionSettings {
	movieTypes := make(map[MovieType]float64, len(MovieTypes))
	for _, movieType := range MovieTypes {
		movieTypes[movieType] = 1
	}
	production := make(map[Production]float64, len(Productions))
	for _, p := range Productions {
		production[p] = 1
	}
	years := make(map[YearRange]float64, len(QuestionYears))
	for _, yearRange := range QuestionYears {
		years[yearRange] = 1
	}
	questionTypes := make(map[QuestionType]float64, len(QuestionTypes))
	for _, questionType := range QuestionTypes {
		questionTypes[questionType] = 1
	}
	return NewQuestionSettings(movieTypes, production, years, questionTypes, VotesRange{}, false, DefaultRepeatIncorrectProbability)
}

// Normalize rescales every dimension to sum to one, drops non-positive
// weights and keeps the persisted year list in sync with the year map.
func (s *QuestionSettings) Normalize() {
	if s.Years == nil && len(s.YearWeights) > 0 {
		s.Years = make(map[YearRange]float64, len(s.YearWeights))
		for _, weight := range s.YearWeights {
			s.Years[weight.YearRange] += weight.Value
		}
	}

	s.MovieTypes = util.NormalizeWeights(s.MovieTypes)
	s.Production = util.NormalizeWeights(s.Production)
	s.Years = util.NormalizeWeights(s.Years)
	s.QuestionTypes = util.NormalizeWeights(s.QuestionTypes)

	s.YearWeights = make([]YearWeight, 0, len(s.Years))
	for yearRange, value := range s.Years {
		s.YearWeights = append(s.YearWeights, YearWeight{YearRange: yearRange, Value: value})
	}
	sort.Slice(s.YearWeights, func(i, j int) bool {
		return s.YearWeights[i].Start < s.YearWeights[j].Start
	})

	switch {
	case s.RepeatIncorrectProbability < 0:
		s.RepeatIncorrectProbability = 0
	case s.RepeatIncorrectProbability > 1:
		s.RepeatIncorrectProbability = 1
	}
}

// PossibleYears maps every concrete year covered by the configured buckets
// to its bucket.
func (s *QuestionSettings) PossibleYears(now time.Time) map[int]YearRange {
	years := make(map[int]YearRange)
	for yearRange := range s.Years {
		start, end := yearRange.Bounds(now)
		for year := start; year <= end; year++ {
			years[year] = yearRange
		}
	}
	return years
}

// EnabledQuestionTypes returns the question types with positive weight in
// a stable order.
func (s *QuestionSettings) EnabledQuestionTypes() []QuestionType {
	var types []QuestionType
	for _, questionType := range QuestionTypes {
		if s.QuestionTypes[questionType] > 0 {
			types = append(types, questionType)
		}
	}
	return types
}

// Empty reports whether some dimension has no enabled value, in which case
// no movie can be eligible.
func (s *QuestionSettings) Empty() bool {
	return len(s.MovieTypes) == 0 || len(s.Production) == 0 || len(s.Years) == 0 || len(s.QuestionTypes) == 0
}

const weightTolerance = 1e-9

// Equal reports whether both settings hold the same normalized values in
// every field
func (s *QuestionSettings) Equal(other *QuestionSettings) bool {
	if s == nil || other == nil {
		return s == other
	}
	return weightsEqual(s.MovieTypes, other.MovieTypes) &&
		weightsEqual(s.Production, other.Production) &&
		weightsEqual(s.Years, other.Years) &&
		weightsEqual(s.QuestionTypes, other.QuestionTypes) &&
		s.Votes == other.Votes &&
		s.HideActorPhotos == other.HideActorPhotos &&
		math.Abs(s.AnswerTime-other.AnswerTime) < weightTolerance &&
		math.Abs(s.RepeatIncorrectProbability-other.RepeatIncorrectProbability) < weightTolerance
}

func weightsEqual[K comparable](a, b map[K]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for key, weight := range a {
		other, ok := b[key]
		if !ok || math.Abs(weight-other) >= weightTolerance {
			return false
		}
	}
	return true
}

// Fingerprint is a stable textual form of the movie filter, used for
// candidate pool cache keys
func (s *QuestionSettings) Fingerprint() string {
	var b strings.Builder
	for _, movieType := range MovieTypes {
		if weight, ok := s.MovieTypes[movieType]; ok {
			fmt.Fprintf(&b, "%s=%.6f,", movieType, weight)
		}
	}
	b.WriteString("|")
	for _, production := range Productions {
		if weight, ok := s.Production[production]; ok {
			fmt.Fprintf(&b, "%s=%.6f,", production, weight)
		}
	}
	b.WriteString("|")
	for _, weight := range s.YearWeights {
		fmt.Fprintf(&b, "%s=%.6f,", weight.YearRange, weight.Value)
	}
	b.WriteString("|")
	for _, questionType := range s.EnabledQuestionTypes() {
		b.WriteString(string(questionType) + ",")
	}
	fmt.Fprintf(&b, "|%d-%d", s.Votes.Min, s.Votes.Max)
	return b.String()
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumWeights[K comparable](weights map[K]float64) float64 {
	total := 0.0
	for _, weight := range weights {
		total += weight
	}
	return total
}

func TestNewQuestionSettings_Normalizes(t *testing.T) {
	settings := NewQuestionSettings(
		map[MovieType]float64{MovieTypeMovie: 3, MovieTypeSeries: 1, MovieTypeAnime: 0},
		map[Production]float64{ProductionRussian: 2, ProductionForeign: -1},
		map[YearRange]float64{{Start: 2020}: 5, {End: 1979}: 5},
		map[QuestionType]float64{QuestionTypeByImage: 0.2, QuestionTypeBySlogan: 0.2},
		VotesRange{Min: 1000},
		true,
		1.7,
	)

	for name, total := range map[string]float64{
		"movie_types":    sumWeights(settings.MovieTypes),
		"production":     sumWeights(settings.Production),
		"years":          sumWeights(settings.Years),
		"question_types": sumWeights(settings.QuestionTypes),
	} {
		assert.InDelta(t, 1.0, total, 1e-9, name)
	}

	assert.InDelta(t, 0.75, settings.MovieTypes[MovieTypeMovie], 1e-9)
	assert.NotContains(t, settings.MovieTypes, MovieTypeAnime)
	assert.NotContains(t, settings.Production, ProductionForeign)
	assert.Equal(t, 1.0, settings.RepeatIncorrectProbability)

	require.Len(t, settings.YearWeights, 2)
	assert.Equal(t, 0, settings.YearWeights[0].Start)
	assert.Equal(t, 2020, settings.YearWeights[1].Start)
}

func TestDefaultQuestionSettings(t *testing.T) {
	settings := DefaultQuestionSettings()

	assert.Len(t, settings.MovieTypes, len(MovieTypes))
	assert.Len(t, settings.Production, len(Productions))
	assert.Len(t, settings.Years, len(QuestionYears))
	assert.Len(t, settings.QuestionTypes, len(QuestionTypes))
	assert.InDelta(t, 0.2, settings.MovieTypes[MovieTypeCartoon], 1e-9)
	assert.Equal(t, DefaultRepeatIncorrectProbability, settings.RepeatIncorrectProbability)
	assert.False(t, settings.Empty())
}

func TestQuestionSettings_NormalizeRestoresYearsFromPersistedList(t *testing.T) {
	settings := &QuestionSettings{
		MovieTypes:    map[MovieType]float64{MovieTypeMovie: 1},
		Production:    map[Production]float64{ProductionRussian: 1},
		QuestionTypes: map[QuestionType]float64{QuestionTypeBySlogan: 1},
		YearWeights: []YearWeight{
			{YearRange: YearRange{Start: 2010, End: 2014}, Value: 1},
			{YearRange: YearRange{Start: 2015, End: 2019}, Value: 3},
		},
	}
	settings.Normalize()

	assert.InDelta(t, 0.25, settings.Years[YearRange{Start: 2010, End: 2014}], 1e-9)
	assert.InDelta(t, 0.75, settings.Years[YearRange{Start: 2015, End: 2019}], 1e-9)
}

func TestParseYearRange(t *testing.T) {
	tests := []struct {
		key     string
		want    YearRange
		wantErr bool
	}{
		{"1980-1989", YearRange{Start: 1980, End: 1989}, false},
		{"-1979", YearRange{End: 1979}, false},
		{"2020-", YearRange{Start: 2020}, false},
		{"2020", YearRange{}, true},
		{"abc-1990", YearRange{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseYearRange(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.key, got.String())
		})
	}
}

func TestQuestionSettings_PossibleYears(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	settings := NewQuestionSettings(
		map[MovieType]float64{MovieTypeMovie: 1},
		map[Production]float64{ProductionRussian: 1},
		map[YearRange]float64{{End: 1979}: 1, {Start: 2020}: 1},
		map[QuestionType]float64{QuestionTypeBySlogan: 1},
		VotesRange{}, false, 0,
	)

	years := settings.PossibleYears(now)

	assert.Equal(t, YearRange{End: 1979}, years[1900])
	assert.Equal(t, YearRange{End: 1979}, years[1979])
	assert.Equal(t, YearRange{Start: 2020}, years[2024])
	assert.NotContains(t, years, 1999)
	assert.NotContains(t, years, 2025)
	assert.Len(t, years, 80+5)
}

func TestQuestionSettings_Fingerprint(t *testing.T) {
	a := DefaultQuestionSettings()
	b := DefaultQuestionSettings()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Votes.Min = 10
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path"
	"slices"

	"movie-quiz/internal/domain"
)

// topVotes is the vote count from which a tour is tagged "top"
const topVotes = 200_000

var yearPresets = map[string]map[domain.YearRange]float64{
	"all": {
		{Start: 1980, End: 1989}: 1,
		{Start: 1990, End: 1999}: 1,
		{Start: 2000, End: 2009}: 1,
		{Start: 2010, End: 2014}: 1,
		{Start: 2015, End: 2019}: 1,
		{Start: 2020}:            1,
	},
	"normal": {
		{Start: 1980, End: 1989}: 0.25,
		{Start: 1990, End: 1999}: 0.5,
		{Start: 2000, End: 2009}: 1,
		{Start: 2010, End: 2014}: 2,
		{Start: 2015, End: 2019}: 2,
		{Start: 2020}:            3,
	},
	"soviet": {
		{End: 1979}:              1,
		{Start: 1980, End: 1989}: 1,
	},
}

var movieTypePresets = map[string]map[domain.MovieType]float64{
	"all": {
		domain.MovieTypeMovie:          1,
		domain.MovieTypeSeries:         1,
		domain.MovieTypeCartoon:        1,
		domain.MovieTypeAnimatedSeries: 1,
		domain.MovieTypeAnime:          1,
	},
	"mcs": {
		domain.MovieTypeMovie:          4,
		domain.MovieTypeSeries:         1.5,
		domain.MovieTypeCartoon:        1,
		domain.MovieTypeAnimatedSeries: 0.5,
	},
	"movie":   {domain.MovieTypeMovie: 1},
	"series":  {domain.MovieTypeSeries: 1},
	"cartoon": {domain.MovieTypeCartoon: 0.9, domain.MovieTypeAnimatedSeries: 0.1},
	"anime":   {domain.MovieTypeAnime: 1},
}

var productionPresets = map[string]map[domain.Production]float64{
	"all": {
		domain.ProductionForeign: 0.8,
		domain.ProductionRussian: 0.1,
		domain.ProductionTurkish: 0.05,
		domain.ProductionKorean:  0.05,
	},
	"russian": {domain.ProductionRussian: 1},
	"foreign": {domain.ProductionForeign: 1},
}

var questionTypePresets = map[string]map[domain.QuestionType]float64{
	"all": {
		domain.QuestionTypeByImage:            2,
		domain.QuestionTypeByShortDescription: 1,
		domain.QuestionTypeByActors:           0.1,
		domain.QuestionTypeByCharacters:       0.2,
	},
	"images": {domain.QuestionTypeByImage: 1},
	"images-short-description": {
		domain.QuestionTypeByImage:            2,
		domain.QuestionTypeByShortDescription: 1,
	},
}

type options struct {
	Name          string
	Description   string
	Questions     int
	Image         string
	ImagesRoot    string
	Years         string
	MovieTypes    string
	Production    string
	Mechanics     string
	Votes         int
	QuestionTypes string
	Yes           bool
}

func lookup[V any](presets map[string]V, flag, key string) (V, error) {
	value, ok := presets[key]
	if !ok {
		var zero V
		return zero, fmt.Errorf("invalid --%s %q", flag, key)
	}
	return value, nil
}

func (o options) validate() error {
	if o.Name == "" {
		return fmt.Errorf("--name is required")
	}
	if o.Description == "" {
		return fmt.Errorf("--description is required")
	}
	if o.Questions < 7 {
		return fmt.Errorf("--questions must be at least 7, got %d", o.Questions)
	}
	if o.Image == "" {
		return fmt.Errorf("--image is required")
	}
	if !domain.TourType(o.Mechanics).IsValid() {
		return fmt.Errorf("invalid --mechanics %q", o.Mechanics)
	}
	return nil
}

// settings builds the question settings of the tour from the presets
func (o options) settings() (*domain.QuestionSettings, error) {
	years, err := lookup(yearPresets, "years", o.Years)
	if err != nil {
		return nil, err
	}
	movieTypes, err := lookup(movieTypePresets, "movie-types", o.MovieTypes)
	if err != nil {
		return nil, err
	}
	production, err := lookup(productionPresets, "production", o.Production)
	if err != nil {
		return nil, err
	}
	questionTypes, err := lookup(questionTypePresets, "question-types", o.QuestionTypes)
	if err != nil {
		return nil, err
	}

	return domain.NewQuestionSettings(
		movieTypes,
		production,
		years,
		questionTypes,
		domain.VotesRange{Min: o.Votes},
		false,
		0,
	), nil
}

func (o options) tags() []string {
	tags := []string{}
	if o.Votes >= topVotes {
		tags = append(tags, "top")
	}
	if o.Years == "soviet" && o.Production == "russian" {
		tags = append(tags, "soviet")
	}
	if slices.Contains([]string{"movie", "series", "cartoon", "anime", "mcs"}, o.MovieTypes) {
		tags = append(tags, o.MovieTypes)
	}
	return tags
}

// imageURL picks a random picture from the tour image directory
func (o options) imageURL(rng *rand.Rand) (string, error) {
	entries, err := os.ReadDir(path.Join(o.ImagesRoot, o.Image))
	if err != nil {
		return "", fmt.Errorf("failed to read image directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("image directory %s is empty", o.Image)
	}
	return path.Join("/images/quiz_tours", o.Image, names[rng.IntN(len(names))]), nil
}

package repository

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"movie-quiz/internal/domain"
)

var nonEmptyString = bson.M{"$nin": bson.A{"", nil}}

// content each question type needs
var questionTypeFilters = map[domain.QuestionType]bson.M{
	domain.QuestionTypeBySlogan:           {"slogan": nonEmptyString},
	domain.QuestionTypeByShortDescription: {"short_description.text": nonEmptyString},
	domain.QuestionTypeByDescription:      {"description.text": nonEmptyString},
	domain.QuestionTypeByImage:            {"image_urls.0": bson.M{"$exists": true}},
	domain.QuestionTypeByActors:           {"actors.0": bson.M{"$exists": true}},
	domain.QuestionTypeByCharacters:       {"actors.2": bson.M{"$exists": true}},
}

// CandidateFilter builds the movie filter for the settings: every
// dimension restricted to its configured values and at least one enabled
// question type with content.
func CandidateFilter(settings *domain.QuestionSettings, now time.Time) bson.M {
	movieTypes := bson.A{}
	for _, movieType := range domain.MovieTypes {
		if _, ok := settings.MovieTypes[movieType]; ok {
			movieTypes = append(movieTypes, string(movieType))
		}
	}

	productions := bson.A{}
	for _, production := range domain.Productions {
		if _, ok := settings.Production[production]; ok {
			productions = append(productions, string(production))
		}
	}

	possibleYears := settings.PossibleYears(now)
	yearList := make([]int, 0, len(possibleYears))
	for year := range possibleYears {
		yearList = append(yearList, year)
	}
	sort.Ints(yearList)
	years := make(bson.A, len(yearList))
	for i, year := range yearList {
		years[i] = year
	}

	questionTypes := bson.A{}
	for _, questionType := range settings.EnabledQuestionTypes() {
		if filter, ok := questionTypeFilters[questionType]; ok {
			questionTypes = append(questionTypes, filter)
		}
	}

	filter := bson.M{
		"movie_type":   bson.M{"$in": movieTypes},
		"production.0": bson.M{"$in": productions},
		"year":         bson.M{"$in": years},
		"$or":          questionTypes,
	}

	votes := bson.M{}
	if settings.Votes.Min > 0 {
		votes["$gte"] = settings.Votes.Min
	}
	if settings.Votes.Max > 0 {
		votes["$lte"] = settings.Votes.Max
	}
	if len(votes) > 0 {
		filter["rating.votes_kp"] = votes
	}
	return filter
}

func intsToArray(values []int) bson.A {
	array := make(bson.A, len(values))
	for i, value := range values {
		array[i] = value
	}
	return array
}

package dto

import (
	"movie-quiz/internal/domain"
)

// QuestionSettingsPayload is the wire form of domain.QuestionSettings.
// Map keys are enum values; year keys use the "start-end" form.
type QuestionSettingsPayload struct {
	AnswerTime                 float64            `json:"answer_time" validate:"gte=0,lte=600"`
	MovieTypes                 map[string]float64 `json:"movie_types" validate:"required,dive,keys,movie_type,endkeys,gte=0"`
	Production                 map[string]float64 `json:"production" validate:"required,dive,keys,production,endkeys,gte=0"`
	Years                      map[string]float64 `json:"years" validate:"required,dive,keys,year_range,endkeys,gte=0"`
	QuestionTypes              map[string]float64 `json:"question_types" validate:"required,dive,keys,question_type,endkeys,gte=0"`
	VotesMin                   int                `json:"votes_min" validate:"gte=0"`
	VotesMax                   int                `json:"votes_max" validate:"gte=0"`
	HideActorPhotos            bool               `json:"hide_actor_photos"`
	RepeatIncorrectProbability float64            `json:"repeat_incorrect_probability" validate:"gte=0,lte=1"`
}

// ToDomain builds normalized settings. Keys are expected to be validated;
// unparsable year keys are skipped.
func (p QuestionSettingsPayload) ToDomain() *domain.QuestionSettings {
	movieTypes := make(map[domain.MovieType]float64, len(p.MovieTypes))
	for key, weight := range p.MovieTypes {
		movieTypes[domain.MovieType(key)] = weight
	}
	production := make(map[domain.Production]float64, len(p.Production))
	for key, weight := range p.Production {
		production[domain.Production(key)] = weight
	}
	years := make(map[domain.YearRange]float64, len(p.Years))
	for key, weight := range p.Years {
		yearRange, err := domain.ParseYearRange(key)
		if err != nil {
			continue
		}
		years[yearRange] = weight
	}
	questionTypes := make(map[domain.QuestionType]float64, len(p.QuestionTypes))
	for key, weight := range p.QuestionTypes {
		questionTypes[domain.QuestionType(key)] = weight
	}

	settings := domain.NewQuestionSettings(
		movieTypes,
		production,
		years,
		questionTypes,
		domain.VotesRange{Min: p.VotesMin, Max: p.VotesMax},
		p.HideActorPhotos,
		p.RepeatIncorrectProbability,
	)
	settings.AnswerTime = p.AnswerTime
	return settings
}

func NewQuestionSettingsPayload(settings *domain.QuestionSettings) QuestionSettingsPayload {
	payload := QuestionSettingsPayload{
		AnswerTime:                 settings.AnswerTime,
		MovieTypes:                 make(map[string]float64, len(settings.MovieTypes)),
		Production:                 make(map[string]float64, len(settings.Production)),
		Years:                      make(map[string]float64, len(settings.Years)),
		QuestionTypes:              make(map[string]float64, len(settings.QuestionTypes)),
		VotesMin:                   settings.Votes.Min,
		VotesMax:                   settings.Votes.Max,
		HideActorPhotos:            settings.HideActorPhotos,
		RepeatIncorrectProbability: settings.RepeatIncorrectProbability,
	}
	for key, weight := range settings.MovieTypes {
		payload.MovieTypes[string(key)] = weight
	}
	for key, weight := range settings.Production {
		payload.Production[string(key)] = weight
	}
	for key, weight := range settings.Years {
		payload.Years[key.String()] = weight
	}
	for key, weight := range settings.QuestionTypes {
		payload.QuestionTypes[string(key)] = weight
	}
	return payload
}

// SettingsRequest replaces the caller's settings
type SettingsRequest struct {
	QuestionSettings    QuestionSettingsPayload `json:"question_settings"`
	ShowKnowledgeStatus bool                    `json:"show_knowledge_status"`
}

type SettingsResponse struct {
	Username            string                  `json:"username"`
	QuestionSettings    QuestionSettingsPayload `json:"question_settings"`
	ShowKnowledgeStatus bool                    `json:"show_knowledge_status"`
}

func NewSettingsResponse(settings *domain.UserSettings) SettingsResponse {
	return SettingsResponse{
		Username:            settings.Username,
		QuestionSettings:    NewQuestionSettingsPayload(settings.QuestionSettings),
		ShowKnowledgeStatus: settings.ShowKnowledgeStatus,
	}
}

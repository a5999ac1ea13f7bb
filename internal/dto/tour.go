package dto

import "movie-quiz/internal/domain"

// GenerateTourRequest asks for a new tour. Without question settings the
// defaults are used.
type GenerateTourRequest struct {
	Name             string                   `json:"name" validate:"required,max=200"`
	Description      string                   `json:"description" validate:"max=2000"`
	ImageURL         string                   `json:"image_url" validate:"omitempty,max=500"`
	Tags             []string                 `json:"tags" validate:"omitempty,dive,required,max=50"`
	Type             string                   `json:"quiz_tour_type" validate:"required,tour_type"`
	Questions        int                      `json:"questions" validate:"required,min=1,max=50"`
	QuestionSettings *QuestionSettingsPayload `json:"question_settings"`
}

func (r GenerateTourRequest) Params() domain.TourParams {
	return domain.TourParams{
		Name:        r.Name,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Tags:        r.Tags,
	}
}

func (r GenerateTourRequest) Settings() *domain.QuestionSettings {
	if r.QuestionSettings == nil {
		return domain.DefaultQuestionSettings()
	}
	return r.QuestionSettings.ToDomain()
}

type TourAnswerRequest struct {
	QuestionID int `json:"question_id" validate:"required,gt=0"`
	AnswerRequest
}

// TourQuestionResponse has a nil question once the tour is finished
type TourQuestionResponse struct {
	Question *domain.TourQuestion `json:"question"`
	Finished bool                 `json:"finished"`
}

type TourListResponse struct {
	Tours []*domain.Tour `json:"tours"`
}

type TopPlayersResponse struct {
	Players []domain.TourRating `json:"players"`
}

// RatingResponse has a nil rating until the user completes a tour
type RatingResponse struct {
	Rating *domain.TourRating `json:"rating"`
}

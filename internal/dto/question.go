package dto

import "movie-quiz/internal/domain"

// AnswerRequest is a player's verdict on the current question
type AnswerRequest struct {
	Correct    *bool    `json:"correct" validate:"required"`
	AnswerTime *float64 `json:"answer_time" validate:"omitempty,gte=0"`
}

func (r AnswerRequest) ToDomain() domain.Answer {
	answer := domain.Answer{AnswerTime: r.AnswerTime}
	if r.Correct != nil {
		answer.Correct = *r.Correct
	}
	return answer
}

// QuestionResponse carries a question and the player's record for its movie
type QuestionResponse struct {
	Question *domain.Question       `json:"question"`
	Scale    *domain.KnowledgeScale `json:"knowledge_scale,omitempty"`
}

type KnowledgeResponse struct {
	Scales map[int]domain.KnowledgeScale `json:"movie_id2scale"`
}

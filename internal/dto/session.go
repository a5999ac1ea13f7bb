package dto

import "movie-quiz/internal/domain"

type CreateSessionRequest struct {
	SessionID string `json:"session_id" validate:"required,session_id"`
}

type SessionResponse struct {
	SessionID        string                     `json:"session_id"`
	CreatedBy        string                     `json:"created_by"`
	Players          []string                   `json:"players"`
	Statistics       map[string][]domain.Answer `json:"statistics"`
	QuestionSettings QuestionSettingsPayload    `json:"question_settings"`
}

func NewSessionResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		SessionID:        session.SessionID,
		CreatedBy:        session.CreatedBy,
		Players:          session.Players,
		Statistics:       session.Statistics,
		QuestionSettings: NewQuestionSettingsPayload(session.QuestionSettings),
	}
}

// SessionEvent is a message a player sends over the session websocket
type SessionEvent struct {
	Action           string                   `json:"action" validate:"required,oneof=answer settings message reaction"`
	Correct          *bool                    `json:"correct"`
	AnswerTime       *float64                 `json:"answer_time" validate:"omitempty,gte=0"`
	Text             string                   `json:"text" validate:"max=500"`
	Reaction         string                   `json:"reaction" validate:"max=32"`
	QuestionSettings *QuestionSettingsPayload `json:"question_settings"`
}

package handler_test

import (
	"context"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/service"
)

// --- Manual Mocks ---

// MockQuestionService
type MockQuestionService struct {
	GetQuestionFunc            func(ctx context.Context, username string, settings *domain.QuestionSettings) (*domain.Question, error)
	AnswerQuestionFunc         func(ctx context.Context, username string, answer domain.Answer) (*domain.Question, error)
	GetMovieKnowledgeScaleFunc func(ctx context.Context, username string, movieIDs []int) (map[int]domain.KnowledgeScale, error)
	GetSettingsFunc            func(ctx context.Context, username string) (*domain.UserSettings, error)
	UpdateSettingsFunc         func(ctx context.Context, settings *domain.UserSettings) (*domain.UserSettings, error)
}

func (m *MockQuestionService) GetQuestion(ctx context.Context, username string, settings *domain.QuestionSettings) (*domain.Question, error) {
	if m.GetQuestionFunc != nil {
		return m.GetQuestionFunc(ctx, username, settings)
	}
	panic("MockQuestionService.GetQuestionFunc not implemented")
}
func (m *MockQuestionService) GetSessionQuestion(ctx context.Context, settings *domain.QuestionSettings, history []domain.Question) (*domain.Question, error) {
	panic("MockQuestionService.GetSessionQuestion not implemented")
}
func (m *MockQuestionService) AnswerQuestion(ctx context.Context, username string, answer domain.Answer) (*domain.Question, error) {
	if m.AnswerQuestionFunc != nil {
		return m.AnswerQuestionFunc(ctx, username, answer)
	}
	panic("MockQuestionService.AnswerQuestionFunc not implemented")
}
func (m *MockQuestionService) HaveQuestion(ctx context.Context, username string) (bool, error) {
	panic("MockQuestionService.HaveQuestion not implemented")
}
func (m *MockQuestionService) RecordSessionAnswers(ctx context.Context, q *domain.Question, answers map[string]domain.Answer) error {
	panic("MockQuestionService.RecordSessionAnswers not implemented")
}
func (m *MockQuestionService) GetMovieKnowledgeScale(ctx context.Context, username string, movieIDs []int) (map[int]domain.KnowledgeScale, error) {
	if m.GetMovieKnowledgeScaleFunc != nil {
		return m.GetMovieKnowledgeScaleFunc(ctx, username, movieIDs)
	}
	panic("MockQuestionService.GetMovieKnowledgeScaleFunc not implemented")
}
func (m *MockQuestionService) GetSettings(ctx context.Context, username string) (*domain.UserSettings, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx, username)
	}
	panic("MockQuestionService.GetSettingsFunc not implemented")
}
func (m *MockQuestionService) UpdateSettings(ctx context.Context, settings *domain.UserSettings) (*domain.UserSettings, error) {
	if m.UpdateSettingsFunc != nil {
		return m.UpdateSettingsFunc(ctx, settings)
	}
	panic("MockQuestionService.UpdateSettingsFunc not implemented")
}

// MockTourService
type MockTourService struct {
	GenerateTourFunc       func(ctx context.Context, params domain.TourParams, tourType domain.TourType, settings *domain.QuestionSettings, count int) (*domain.Tour, error)
	GetTourFunc            func(ctx context.Context, tourID int) (*domain.Tour, error)
	ListToursFunc          func(ctx context.Context) ([]*domain.Tour, error)
	GetTourQuestionFunc    func(ctx context.Context, username string, tourID int) (*domain.TourQuestion, error)
	AnswerTourQuestionFunc func(ctx context.Context, username string, questionID int, answer domain.Answer) error
	GetTourStatusFunc      func(ctx context.Context, username string, tourID int) (*domain.TourStatus, error)
	GetRatingFunc          func(ctx context.Context, username string) (*domain.TourRating, error)
	TopPlayersFunc         func(ctx context.Context) ([]domain.TourRating, error)
}

func (m *MockTourService) GenerateTour(ctx context.Context, params domain.TourParams, tourType domain.TourType, settings *domain.QuestionSettings, count int) (*domain.Tour, error) {
	if m.GenerateTourFunc != nil {
		return m.GenerateTourFunc(ctx, params, tourType, settings, count)
	}
	panic("MockTourService.GenerateTourFunc not implemented")
}
func (m *MockTourService) GetTour(ctx context.Context, tourID int) (*domain.Tour, error) {
	if m.GetTourFunc != nil {
		return m.GetTourFunc(ctx, tourID)
	}
	panic("MockTourService.GetTourFunc not implemented")
}
func (m *MockTourService) ListTours(ctx context.Context) ([]*domain.Tour, error) {
	if m.ListToursFunc != nil {
		return m.ListToursFunc(ctx)
	}
	panic("MockTourService.ListToursFunc not implemented")
}
func (m *MockTourService) GetTourQuestion(ctx context.Context, username string, tourID int) (*domain.TourQuestion, error) {
	if m.GetTourQuestionFunc != nil {
		return m.GetTourQuestionFunc(ctx, username, tourID)
	}
	panic("MockTourService.GetTourQuestionFunc not implemented")
}
func (m *MockTourService) HaveTourQuestion(ctx context.Context, questionID int, username string) (bool, error) {
	panic("MockTourService.HaveTourQuestion not implemented")
}
func (m *MockTourService) AnswerTourQuestion(ctx context.Context, username string, questionID int, answer domain.Answer) error {
	if m.AnswerTourQuestionFunc != nil {
		return m.AnswerTourQuestionFunc(ctx, username, questionID, answer)
	}
	panic("MockTourService.AnswerTourQuestionFunc not implemented")
}
func (m *MockTourService) GetTourStatus(ctx context.Context, username string, tourID int) (*domain.TourStatus, error) {
	if m.GetTourStatusFunc != nil {
		return m.GetTourStatusFunc(ctx, username, tourID)
	}
	panic("MockTourService.GetTourStatusFunc not implemented")
}
func (m *MockTourService) GetRating(ctx context.Context, username string) (*domain.TourRating, error) {
	if m.GetRatingFunc != nil {
		return m.GetRatingFunc(ctx, username)
	}
	panic("MockTourService.GetRatingFunc not implemented")
}
func (m *MockTourService) TopPlayers(ctx context.Context) ([]domain.TourRating, error) {
	if m.TopPlayersFunc != nil {
		return m.TopPlayersFunc(ctx)
	}
	panic("MockTourService.TopPlayersFunc not implemented")
}
func (m *MockTourService) RemoveMovieFromTours(ctx context.Context, movieID int) error {
	panic("MockTourService.RemoveMovieFromTours not implemented")
}

// MockSessionService
type MockSessionService struct {
	CreateFunc func(ctx context.Context, sessionID, username string) (*domain.Session, error)
	CheckFunc  func(ctx context.Context, sessionID, username string, clearStatistics bool) (*domain.Session, error)
	RemoveFunc func(ctx context.Context, sessionID, username string) error
}

func (m *MockSessionService) Create(ctx context.Context, sessionID, username string) (*domain.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sessionID, username)
	}
	panic("MockSessionService.CreateFunc not implemented")
}
func (m *MockSessionService) Check(ctx context.Context, sessionID, username string, clearStatistics bool) (*domain.Session, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, sessionID, username, clearStatistics)
	}
	panic("MockSessionService.CheckFunc not implemented")
}
func (m *MockSessionService) Join(ctx context.Context, sessionID, username string) error {
	panic("MockSessionService.Join not implemented")
}
func (m *MockSessionService) Leave(ctx context.Context, sessionID, username string) error {
	panic("MockSessionService.Leave not implemented")
}
func (m *MockSessionService) Answer(ctx context.Context, sessionID, username string, answer domain.Answer) error {
	panic("MockSessionService.Answer not implemented")
}
func (m *MockSessionService) UpdateSettings(ctx context.Context, sessionID, username string, settings *domain.QuestionSettings) error {
	panic("MockSessionService.UpdateSettings not implemented")
}
func (m *MockSessionService) Relay(sessionID string, message service.RelayMessage) {
	panic("MockSessionService.Relay not implemented")
}
func (m *MockSessionService) Remove(ctx context.Context, sessionID, username string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, sessionID, username)
	}
	panic("MockSessionService.RemoveFunc not implemented")
}

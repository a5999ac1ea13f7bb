package handler_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/dto"
	"movie-quiz/internal/handler"
	"movie-quiz/internal/middleware"
	"movie-quiz/internal/validation"
)

func newTourApp(tours *MockTourService) *fiber.App {
	validator := validation.NewValidator()
	vm := middleware.NewValidationMiddleware(validator)
	h := handler.NewTourHandler(tours, validator)

	app := newTestApp("alice")
	app.Get("/tours", h.ListTours)
	app.Post("/tours", h.GenerateTour)
	app.Get("/tours/rating", h.GetRating)
	app.Get("/tours/top", h.TopPlayers)
	app.Post("/tours/answer", h.AnswerTourQuestion)
	app.Get("/tours/:id", vm.ValidateTourID(), h.GetTour)
	app.Get("/tours/:id/question", vm.ValidateTourID(), h.GetTourQuestion)
	app.Get("/tours/:id/status", vm.ValidateTourID(), h.GetTourStatus)
	return app
}

func TestTourHandler_GenerateTour(t *testing.T) {
	tests := []struct {
		name           string
		body           dto.GenerateTourRequest
		tour           *domain.Tour
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "generated",
			body:           dto.GenerateTourRequest{Name: "Цепочка", Type: "chain", Questions: 10},
			tour:           &domain.Tour{TourID: 5, Type: domain.TourTypeChain, Name: "Цепочка"},
			expectedStatus: fiber.StatusCreated,
		},
		{
			name:           "pool too small",
			body:           dto.GenerateTourRequest{Name: "Цепочка", Type: "chain", Questions: 10},
			expectedStatus: fiber.StatusNotFound,
			expectedCode:   string(domain.CodeNoEligibleMovies),
		},
		{
			name:           "unknown mechanics",
			body:           dto.GenerateTourRequest{Name: "Марафон", Type: "marathon", Questions: 10},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   string(domain.CodeValidation),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tours := &MockTourService{
				GenerateTourFunc: func(ctx context.Context, params domain.TourParams, tourType domain.TourType, settings *domain.QuestionSettings, count int) (*domain.Tour, error) {
					assert.Equal(t, "Цепочка", params.Name)
					assert.Equal(t, domain.TourTypeChain, tourType)
					assert.Equal(t, 10, count)
					assert.Equal(t, domain.DefaultQuestionSettings().Fingerprint(), settings.Fingerprint())
					return tc.tour, nil
				},
			}
			resp, body := doJSON(t, newTourApp(tours), "POST", "/tours", tc.body)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			if tc.expectedCode != "" {
				assert.Equal(t, tc.expectedCode, errorCode(t, body))
				return
			}
			var tour domain.Tour
			require.NoError(t, json.Unmarshal(body, &tour))
			assert.Equal(t, 5, tour.TourID)
		})
	}
}

func TestTourHandler_Play(t *testing.T) {
	served := 0
	tours := &MockTourService{
		GetTourQuestionFunc: func(ctx context.Context, username string, tourID int) (*domain.TourQuestion, error) {
			assert.Equal(t, "alice", username)
			if tourID != 3 {
				return nil, domain.NewTourNotFoundError(tourID)
			}
			served++
			if served > 1 {
				return nil, nil
			}
			return &domain.TourQuestion{QuestionID: 11, Question: domain.Question{Title: "Вопрос 1 из 1. Угадайте фильм"}}, nil
		},
		AnswerTourQuestionFunc: func(ctx context.Context, username string, questionID int, answer domain.Answer) error {
			if questionID != 11 {
				return domain.NewError(domain.CodeTourQuestionAnswered, "question is not available", nil)
			}
			assert.True(t, answer.Correct)
			return nil
		},
		GetTourStatusFunc: func(ctx context.Context, username string, tourID int) (*domain.TourStatus, error) {
			return &domain.TourStatus{Correct: 1, Total: 1, CorrectPercents: 100}, nil
		},
	}
	app := newTourApp(tours)

	resp, body := doJSON(t, app, "GET", "/tours/3/question", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var next dto.TourQuestionResponse
	require.NoError(t, json.Unmarshal(body, &next))
	require.NotNil(t, next.Question)
	assert.False(t, next.Finished)

	resp, _ = doJSON(t, app, "POST", "/tours/answer", map[string]interface{}{"question_id": 11, "correct": true})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, app, "POST", "/tours/answer", map[string]interface{}{"question_id": 12, "correct": true})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(domain.CodeTourQuestionAnswered), errorCode(t, body))

	resp, body = doJSON(t, app, "GET", "/tours/3/question", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &next))
	assert.Nil(t, next.Question)
	assert.True(t, next.Finished)

	resp, body = doJSON(t, app, "GET", "/tours/3/status", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"correct_percents":100`)

	resp, body = doJSON(t, app, "GET", "/tours/8/question", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(domain.CodeTourNotFound), errorCode(t, body))

	resp, _ = doJSON(t, app, "GET", "/tours/zero/question", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTourHandler_Ratings(t *testing.T) {
	tours := &MockTourService{
		GetRatingFunc: func(ctx context.Context, username string) (*domain.TourRating, error) {
			return nil, nil
		},
		TopPlayersFunc: func(ctx context.Context) ([]domain.TourRating, error) {
			return []domain.TourRating{{Username: "dave", Rating: 100, Count: 4}}, nil
		},
		ListToursFunc: func(ctx context.Context) ([]*domain.Tour, error) {
			return nil, nil
		},
	}
	app := newTourApp(tours)

	resp, body := doJSON(t, app, "GET", "/tours/rating", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"rating":null}`, string(body))

	resp, body = doJSON(t, app, "GET", "/tours/top", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"players":[{"username":"dave","rating":100,"count":4}]}`, string(body))

	resp, body = doJSON(t, app, "GET", "/tours", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"tours":[]}`, string(body))
}

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
	"movie-quiz/internal/validation"
)

func TestSessionHandler(t *testing.T) {
	var cleared bool
	sessions := &MockSessionService{
		CreateFunc: func(ctx context.Context, sessionID, username string) (*domain.Session, error) {
			if sessionID == "taken" {
				return nil, domain.NewError(domain.CodeSessionExists, "session exists", nil)
			}
			return domain.NewSession(sessionID, username), nil
		},
		CheckFunc: func(ctx context.Context, sessionID, username string, clearStatistics bool) (*domain.Session, error) {
			if sessionID != "room" {
				return nil, domain.NewSessionNotFoundError(sessionID)
			}
			cleared = clearStatistics
			return domain.NewSession(sessionID, "alice"), nil
		},
		RemoveFunc: func(ctx context.Context, sessionID, username string) error {
			assert.Equal(t, "alice", username)
			return nil
		},
	}
	h := handler.NewSessionHandler(sessions, validation.NewValidator())
	app := newTestApp("alice")
	app.Post("/sessions", h.CreateSession)
	app.Get("/sessions/:id", h.CheckSession)
	app.Delete("/sessions/:id", h.RemoveSession)

	resp, body := doJSON(t, app, "POST", "/sessions", dto.CreateSessionRequest{SessionID: "room"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created dto.SessionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "room", created.SessionID)
	assert.Equal(t, "alice", created.CreatedBy)

	resp, body = doJSON(t, app, "POST", "/sessions", dto.CreateSessionRequest{SessionID: "taken"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(domain.CodeSessionExists), errorCode(t, body))

	resp, _ = doJSON(t, app, "POST", "/sessions", dto.CreateSessionRequest{SessionID: "no spaces"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/sessions/room?clear_statistics=true", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, cleared)

	resp, body = doJSON(t, app, "GET", "/sessions/hall", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(domain.CodeSessionNotFound), errorCode(t, body))

	resp, _ = doJSON(t, app, "DELETE", "/sessions/room", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

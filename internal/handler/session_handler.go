package handler

import (
	"github.com/gofiber/fiber/v2"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/dto"
	"movie-quiz/internal/middleware"
	"movie-quiz/internal/service"
	"movie-quiz/internal/validation"
)

// SessionHandler manages multiplayer sessions over HTTP; gameplay itself
// runs over the websocket relay.
type SessionHandler struct {
	sessions  service.SessionService
	validator *validation.Validator
}

func NewSessionHandler(sessions service.SessionService, validator *validation.Validator) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		validator: validator,
	}
}

// CreateSession godoc
// @Summary Create a multiplayer session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body dto.CreateSessionRequest true "Session"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	session, err := h.sessions.Create(c.UserContext(), req.SessionID, middleware.Username(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSessionResponse(session))
}

// CheckSession godoc
// @Summary Check a multiplayer session
// @Description The creator may reset the statistics with clear_statistics=true
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param clear_statistics query bool false "Reset statistics"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) CheckSession(c *fiber.Ctx) error {
	session, err := h.sessions.Check(c.UserContext(), c.Params("id"), middleware.Username(c), c.QueryBool("clear_statistics"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionResponse(session))
}

// RemoveSession godoc
// @Summary Remove a multiplayer session
// @Tags sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) RemoveSession(c *fiber.Ctx) error {
	if err := h.sessions.Remove(c.UserContext(), c.Params("id"), middleware.Username(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

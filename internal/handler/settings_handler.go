package handler

import (
	"github.com/gofiber/fiber/v2"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/dto"
	"movie-quiz/internal/middleware"
	"movie-quiz/internal/service"
	"movie-quiz/internal/validation"
)

// SettingsHandler reads and replaces user settings
type SettingsHandler struct {
	questions service.QuestionService
	validator *validation.Validator
}

func NewSettingsHandler(questions service.QuestionService, validator *validation.Validator) *SettingsHandler {
	return &SettingsHandler{
		questions: questions,
		validator: validator,
	}
}

// GetSettings godoc
// @Summary Get user settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SettingsResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.questions.GetSettings(c.UserContext(), middleware.Username(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSettingsResponse(settings))
}

// UpdateSettings godoc
// @Summary Replace user settings
// @Description Weights are normalized before they are stored
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body dto.SettingsRequest true "Settings"
// @Success 200 {object} dto.SettingsResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	settings, err := h.questions.UpdateSettings(c.UserContext(), &domain.UserSettings{
		Username:            middleware.Username(c),
		QuestionSettings:    req.QuestionSettings.ToDomain(),
		ShowKnowledgeStatus: req.ShowKnowledgeStatus,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSettingsResponse(settings))
}

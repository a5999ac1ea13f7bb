package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/dto"
	"movie-quiz/internal/logger"
	"movie-quiz/internal/middleware"
	"movie-quiz/internal/service"
	"movie-quiz/internal/validation"
)

// QuestionHandler serves single-player questions
type QuestionHandler struct {
	questions service.QuestionService
	validator *validation.Validator
}

// NewQuestionHandler creates a new QuestionHandler instance
func NewQuestionHandler(questions service.QuestionService, validator *validation.Validator) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		validator: validator,
	}
}

// GetQuestion godoc
// @Summary Get the current question
// @Description Returns the pending question or issues a new one according to the user's settings
// @Tags question
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.QuestionResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /question [get]
func (h *QuestionHandler) GetQuestion(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username := middleware.Username(c)

	settings, err := h.questions.GetSettings(ctx, username)
	if err != nil {
		return err
	}

	question, err := h.questions.GetQuestion(ctx, username, settings.QuestionSettings)
	if err != nil {
		return err
	}
	if question == nil {
		logger.Get().Info("QuestionHandler: no eligible movies", zap.String("username", username))
		return domain.NewNoEligibleMoviesError()
	}

	response := dto.QuestionResponse{Question: question}
	scales, err := h.questions.GetMovieKnowledgeScale(ctx, username, []int{question.MovieID})
	if err != nil {
		logger.Get().Warn("QuestionHandler: failed to load knowledge scale", zap.Error(err))
	} else if scale, ok := scales[question.MovieID]; ok {
		response.Scale = &scale
	}
	return c.JSON(response)
}

// AnswerQuestion godoc
// @Summary Answer the current question
// @Description Records the user's verdict on the pending question
// @Tags question
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer body dto.AnswerRequest true "Answer"
// @Success 200 {object} dto.QuestionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /question/answer [post]
func (h *QuestionHandler) AnswerQuestion(c *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	question, err := h.questions.AnswerQuestion(c.UserContext(), middleware.Username(c), req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(dto.QuestionResponse{Question: question})
}

// GetKnowledge godoc
// @Summary Get knowledge scales
// @Description Returns the user's answer record for each requested movie
// @Tags question
// @Produce json
// @Param movie_ids query string true "Comma separated movie ids"
// @Success 200 {object} dto.KnowledgeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /knowledge [get]
func (h *QuestionHandler) GetKnowledge(c *fiber.Ctx) error {
	movieIDs, _ := c.Locals(middleware.ValidatedMovieIDsKey).([]int)

	scales, err := h.questions.GetMovieKnowledgeScale(c.UserContext(), middleware.Username(c), movieIDs)
	if err != nil {
		return err
	}
	return c.JSON(dto.KnowledgeResponse{Scales: scales})
}

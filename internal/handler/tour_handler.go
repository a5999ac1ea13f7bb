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

// TourHandler handles quiz tour generation and play
type TourHandler struct {
	tours     service.TourService
	validator *validation.Validator
}

// NewTourHandler creates a new TourHandler instance
func NewTourHandler(tours service.TourService, validator *validation.Validator) *TourHandler {
	return &TourHandler{
		tours:     tours,
		validator: validator,
	}
}

func tourID(c *fiber.Ctx) int {
	id, _ := c.Locals(middleware.ValidatedTourIDKey).(int)
	return id
}

// ListTours godoc
// @Summary List tours
// @Tags tours
// @Produce json
// @Success 200 {object} dto.TourListResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /tours [get]
func (h *TourHandler) ListTours(c *fiber.Ctx) error {
	tours, err := h.tours.ListTours(c.UserContext())
	if err != nil {
		return err
	}
	if tours == nil {
		tours = []*domain.Tour{}
	}
	return c.JSON(dto.TourListResponse{Tours: tours})
}

// GetTour godoc
// @Summary Get a tour
// @Tags tours
// @Produce json
// @Param id path int true "Tour ID"
// @Success 200 {object} domain.Tour
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tours/{id} [get]
func (h *TourHandler) GetTour(c *fiber.Ctx) error {
	tour, err := h.tours.GetTour(c.UserContext(), tourID(c))
	if err != nil {
		return err
	}
	return c.JSON(tour)
}

// GenerateTour godoc
// @Summary Generate a tour
// @Description Draws a new tour with the requested mechanics from the movies matching the settings
// @Tags tours
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tour body dto.GenerateTourRequest true "Tour"
// @Success 201 {object} domain.Tour
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /tours [post]
func (h *TourHandler) GenerateTour(c *fiber.Ctx) error {
	var req dto.GenerateTourRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	tour, err := h.tours.GenerateTour(c.UserContext(), req.Params(), domain.TourType(req.Type), req.Settings(), req.Questions)
	if err != nil {
		return err
	}
	if tour == nil {
		logger.Get().Info("TourHandler: not enough movies for the tour",
			zap.String("type", req.Type),
			zap.Int("questions", req.Questions),
		)
		return domain.NewNoEligibleMoviesError().WithContext("quiz_tour_type", req.Type)
	}
	return c.Status(fiber.StatusCreated).JSON(tour)
}

// GetTourQuestion godoc
// @Summary Get the next tour question
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tour ID"
// @Success 200 {object} dto.TourQuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tours/{id}/question [get]
func (h *TourHandler) GetTourQuestion(c *fiber.Ctx) error {
	question, err := h.tours.GetTourQuestion(c.UserContext(), middleware.Username(c), tourID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.TourQuestionResponse{Question: question, Finished: question == nil})
}

// AnswerTourQuestion godoc
// @Summary Answer a tour question
// @Tags tours
// @Accept json
// @Security BearerAuth
// @Param answer body dto.TourAnswerRequest true "Answer"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /tours/answer [post]
func (h *TourHandler) AnswerTourQuestion(c *fiber.Ctx) error {
	var req dto.TourAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	if err := h.tours.AnswerTourQuestion(c.UserContext(), middleware.Username(c), req.QuestionID, req.ToDomain()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetTourStatus godoc
// @Summary Get tour results
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tour ID"
// @Success 200 {object} domain.TourStatus
// @Failure 404 {object} middleware.ErrorResponse
// @Router /tours/{id}/status [get]
func (h *TourHandler) GetTourStatus(c *fiber.Ctx) error {
	status, err := h.tours.GetTourStatus(c.UserContext(), middleware.Username(c), tourID(c))
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// GetRating godoc
// @Summary Get the user's tour rating
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.RatingResponse
// @Router /tours/rating [get]
func (h *TourHandler) GetRating(c *fiber.Ctx) error {
	rating, err := h.tours.GetRating(c.UserContext(), middleware.Username(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.RatingResponse{Rating: rating})
}

// TopPlayers godoc
// @Summary Get the best tour players
// @Tags tours
// @Produce json
// @Success 200 {object} dto.TopPlayersResponse
// @Router /tours/top [get]
func (h *TourHandler) TopPlayers(c *fiber.Ctx) error {
	players, err := h.tours.TopPlayers(c.UserContext())
	if err != nil {
		return err
	}
	if players == nil {
		players = []domain.TourRating{}
	}
	return c.JSON(dto.TopPlayersResponse{Players: players})
}

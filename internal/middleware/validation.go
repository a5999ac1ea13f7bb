package middleware

import (
	"github.com/gofiber/fiber/v2"

	"movie-quiz/internal/validation"
)

const (
	ValidatedMovieIDsKey = "validated_movie_ids"
	ValidatedTourIDKey   = "validated_tour_id"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(validator *validation.Validator) *ValidationMiddleware {
	return &ValidationMiddleware{validator: validator}
}

// ValidateMovieIDs validates the comma separated movie_ids query parameter
func (vm *ValidationMiddleware) ValidateMovieIDs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, errors := vm.validator.ParseMovieIDs(c.Query("movie_ids"))
		if len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		c.Locals(ValidatedMovieIDsKey, ids)
		return c.Next()
	}
}

// ValidateTourID validates the :id path parameter
func (vm *ValidationMiddleware) ValidateTourID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, errors := vm.validator.ParseID("id", c.Params("id"))
		if len(errors) > 0 {
			return errors
		}

		c.Locals(ValidatedTourIDKey, id)
		return c.Next()
	}
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
)

// ErrorResponse is the body of every failed request. Errors is set for
// validation failures, Details carries the domain error context.
type ErrorResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Status  int                      `json:"status"`
	Details map[string]interface{}   `json:"details,omitempty"`
	Errors  []domain.ValidationError `json:"errors,omitempty"`
}

var domainStatuses = map[domain.ErrorCode]int{
	domain.CodeNotFound:             http.StatusNotFound,
	domain.CodeTourNotFound:         http.StatusNotFound,
	domain.CodeSessionNotFound:      http.StatusNotFound,
	domain.CodeNoEligibleMovies:     http.StatusNotFound,
	domain.CodeInvalidInput:         http.StatusBadRequest,
	domain.CodeInvalidQuestionType:  http.StatusBadRequest,
	domain.CodeValidation:           http.StatusBadRequest,
	domain.CodeMissingField:         http.StatusBadRequest,
	domain.CodeInvalidFormat:        http.StatusBadRequest,
	domain.CodeOutOfRange:           http.StatusBadRequest,
	domain.CodeUnauthorized:         http.StatusUnauthorized,
	domain.CodeNoAnswerableQuestion: http.StatusConflict,
	domain.CodeTourQuestionAnswered: http.StatusConflict,
	domain.CodeSessionExists:        http.StatusConflict,
}

// statusFor returns the HTTP status of a domain error code, 500 for
// codes without a mapping
func statusFor(code domain.ErrorCode) int {
	if status, ok := domainStatuses[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorHandler converts handler errors into ErrorResponse bodies
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get().With(zap.String("method", c.Method()), zap.String("path", c.Path()))

		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			log.Warn("Request rejected by validation", zap.Int("error_count", len(validationErrs)))
			return respond(c, ErrorResponse{
				Code:    string(domain.CodeValidation),
				Message: "Request validation failed",
				Status:  http.StatusBadRequest,
				Errors:  validationErrs,
			})
		}

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			status := statusFor(domainErr.Code)
			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", status),
				zap.Error(domainErr.Cause),
			}
			if status >= http.StatusInternalServerError {
				log.Error("Domain error", fields...)
			} else {
				log.Warn("Domain error", fields...)
			}
			return respond(c, ErrorResponse{
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Status:  status,
				Details: domainErr.Context,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("HTTP error", zap.Int("status", fiberErr.Code), zap.String("message", fiberErr.Message))
			return respond(c, ErrorResponse{Code: "HTTP_ERROR", Message: fiberErr.Message, Status: fiberErr.Code})
		}

		log.Error("Unhandled error", zap.Error(err))
		return respond(c, ErrorResponse{
			Code:    string(domain.CodeInternal),
			Message: "Internal server error",
			Status:  http.StatusInternalServerError,
		})
	}
}

func respond(c *fiber.Ctx, body ErrorResponse) error {
	return c.Status(body.Status).JSON(body)
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_FAILED"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Quiz specific errors
	CodeNoAnswerableQuestion ErrorCode = "NO_ANSWERABLE_QUESTION"
	CodeInvalidQuestionType  ErrorCode = "INVALID_QUESTION_TYPE"
	CodeNoEligibleMovies     ErrorCode = "NO_ELIGIBLE_MOVIES"
	CodeTourNotFound         ErrorCode = "TOUR_NOT_FOUND"
	CodeTourQuestionAnswered ErrorCode = "TOUR_QUESTION_UNAVAILABLE"
	CodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionExists        ErrorCode = "SESSION_EXISTS"
)

// Sentinel errors returned by repositories and the sampling core.
var (
	ErrNoAnswerableQuestion = errors.New("no answerable question")
	ErrUnknownQuestionType  = errors.New("unknown question type")
	ErrPendingExists        = errors.New("pending question already exists")
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a detail to the error and returns it
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewNoAnswerableQuestionError(username string) *DomainError {
	return NewError(CodeNoAnswerableQuestion, "no answerable question", ErrNoAnswerableQuestion).
		WithContext("username", username)
}

func NewInvalidQuestionTypeError(questionType QuestionType) *DomainError {
	return NewError(CodeInvalidQuestionType, fmt.Sprintf("invalid question type %q", questionType), ErrUnknownQuestionType)
}

func NewNoEligibleMoviesError() *DomainError {
	return NewError(CodeNoEligibleMovies, "no movies match the current settings", nil)
}

func NewTourNotFoundError(tourID int) *DomainError {
	return NewError(CodeTourNotFound, fmt.Sprintf("quiz tour %d not found", tourID), nil)
}

func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewError(CodeSessionNotFound, fmt.Sprintf("session %q not found", sessionID), nil)
}

// ValidationError describes one invalid request field
type ValidationError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failed field of a request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, item := range e {
		parts = append(parts, item.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Code: CodeMissingField, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Code: CodeInvalidFormat, Message: fmt.Sprintf("invalid format: %v", value)}
}

func NewOutOfRangeError(field string, value interface{}, min, max interface{}) ValidationError {
	return ValidationError{Field: field, Code: CodeOutOfRange, Message: fmt.Sprintf("value %v is out of range [%v, %v]", value, min, max)}
}

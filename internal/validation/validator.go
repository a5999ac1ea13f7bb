package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"movie-quiz/internal/domain"
)

const maxMovieIDs = 500

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Validator checks request DTOs and converts failures into domain
// validation errors named after the JSON fields.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the quiz enum rules registered
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	rules := map[string]func(string) bool{
		"movie_type":    func(s string) bool { return domain.MovieType(s).IsValid() },
		"production":    func(s string) bool { return domain.Production(s).IsValid() },
		"question_type": func(s string) bool { return domain.QuestionType(s).IsValid() },
		"tour_type":     func(s string) bool { return domain.TourType(s).IsValid() },
		"session_id":    sessionIDPattern.MatchString,
		"year_range": func(s string) bool {
			_, err := domain.ParseYearRange(s)
			return err == nil
		},
	}
	for tag, valid := range rules {
		// registration only fails on an empty tag
		_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		})
	}

	return &Validator{validate: validate}
}

// Struct validates a request DTO. It returns nil or domain.ValidationErrors.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return domain.NewInvalidInputError(err.Error())
	}

	result := make(domain.ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		result = append(result, toDomain(fe))
	}
	return result
}

func toDomain(fe validator.FieldError) domain.ValidationError {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return domain.NewMissingFieldError(field)
	case "gte", "gt", "min":
		return domain.NewOutOfRangeError(field, fe.Value(), fe.Param(), "")
	case "lte", "lt", "max":
		return domain.NewOutOfRangeError(field, fe.Value(), "", fe.Param())
	default:
		return domain.NewInvalidFormatError(field, fe.Value())
	}
}

// fieldPath drops the root struct name from a namespace
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

// ParseID parses a positive integer identifier
func (v *Validator) ParseID(field, raw string) (int, domain.ValidationErrors) {
	if strings.TrimSpace(raw) == "" {
		return 0, domain.ValidationErrors{domain.NewMissingFieldError(field)}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ValidationErrors{domain.NewInvalidFormatError(field, raw)}
	}
	if id <= 0 {
		return 0, domain.ValidationErrors{domain.NewOutOfRangeError(field, id, 1, "")}
	}
	return id, nil
}

// ParseMovieIDs parses a comma separated list of movie ids
func (v *Validator) ParseMovieIDs(raw string) ([]int, domain.ValidationErrors) {
	const field = "movie_ids"
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ValidationErrors{domain.NewMissingFieldError(field)}
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxMovieIDs {
		return nil, domain.ValidationErrors{domain.NewOutOfRangeError(field, len(parts), 1, maxMovieIDs)}
	}

	ids := make([]int, 0, len(parts))
	var errs domain.ValidationErrors
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			errs = append(errs, domain.NewInvalidFormatError(field, part))
			continue
		}
		ids = append(ids, id)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return ids, nil
}

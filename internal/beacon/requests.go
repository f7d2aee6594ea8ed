package beacon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/amishk599/jobbeacon/internal/model"
)

// RegisterRequest carries a new account's credentials.
type RegisterRequest struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// LoginRequest carries credentials to verify.
type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// SearchQuery is an ad-hoc job search. Empty fields and "any" impose nothing.
type SearchQuery struct {
	Keywords        string
	Location        string
	ExperienceLevel string
	JobType         string
}

type savedSearchInput struct {
	Name string `validate:"required"`
}

type pushKeysInput struct {
	P256dh string `validate:"required"`
	Auth   string `validate:"required"`
}

type pushInput struct {
	Endpoint string        `validate:"required,url"`
	Keys     pushKeysInput `validate:"required"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validationError turns validator output into an error wrapping
// model.ErrValidation with one readable message per field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", model.ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email":
		return "invalid email address"
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s check", field, fe.Tag())
	}
}

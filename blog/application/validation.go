package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/go-playground/validator/v10"
)

const validationFailedMessage = "Validation failed, entered data is incorrect"

// PostFields carries the user-editable text of a post.
type PostFields struct {
	Title   string `json:"title" validate:"required,min=5"`
	Content string `json:"content" validate:"required,min=5"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalize trims surrounding whitespace before validation.
func (f PostFields) normalize() PostFields {
	return PostFields{
		Title:   strings.TrimSpace(f.Title),
		Content: strings.TrimSpace(f.Content),
	}
}

// validateFields returns a KindValidation error listing each rejected field.
func validateFields(v *validator.Validate, fields PostFields) error {
	err := v.Struct(fields)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate post: %w", err)
	}

	details := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, domain.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return domain.NewValidationError(validationFailedMessage, details...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

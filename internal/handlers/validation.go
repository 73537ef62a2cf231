package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Global validator instance (reused across all handlers)
var validate = validator.New()

// RequestValidationError carries the first failed field so handlers can map
// it to a stable error code.
type RequestValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *RequestValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// ValidateRequest validates a request struct using go-playground/validator.
// Returns the first field failure, or nil when the struct is valid.
func ValidateRequest(req interface{}) *RequestValidationError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		fe := ve[0]
		return &RequestValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: formatValidationError(fe),
		}
	}

	return &RequestValidationError{Message: err.Error()}
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// validationErrorCode maps a field failure to the error code clients match on
func validationErrorCode(ve *RequestValidationError) string {
	if ve.Tag == "required" {
		return "MISSING_FIELDS"
	}

	switch ve.Field {
	case "Username":
		return "INVALID_USERNAME"
	case "Password":
		return "INVALID_PASSWORD"
	case "Email":
		return "INVALID_EMAIL"
	case "Code":
		return "INVALID_CODE"
	default:
		return "VALIDATION_ERROR"
	}
}

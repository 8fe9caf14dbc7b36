package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errors
}

// getErrorMessage maps validator tags to the Persian messages shown in the
// storefront forms.
func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "این فیلد الزامی است"
	case "email":
		return "فرمت ایمیل نامعتبر است"
	case "e164":
		return "فرمت شماره تلفن نامعتبر است"
	case "min":
		return "مقدار وارد شده کوتاه‌تر از حد مجاز است"
	case "max":
		return "مقدار وارد شده طولانی‌تر از حد مجاز است"
	case "gte":
		return "مقدار باید بزرگ‌تر یا مساوی " + e.Param() + " باشد"
	case "lte":
		return "مقدار باید کوچک‌تر یا مساوی " + e.Param() + " باشد"
	case "gt":
		return "مقدار باید بزرگ‌تر از " + e.Param() + " باشد"
	case "uuid":
		return "شناسه نامعتبر است"
	default:
		return "مقدار نامعتبر است"
	}
}

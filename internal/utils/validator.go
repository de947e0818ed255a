// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/skunkglobal/suite-server/internal/models"
	"github.com/skunkglobal/suite-server/internal/skunkapi"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("product_key", validateProductKey)
	validate.RegisterValidation("license_key", validateLicenseKey)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateProductKey(fl validator.FieldLevel) bool {
	return models.IsValidProduct(fl.Field().String())
}

// validateLicenseKey accepts the test key or the XXXX-XXXX-XXXX-XXXX shape,
// after the same normalization activation applies.
func validateLicenseKey(fl validator.FieldLevel) bool {
	key := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
	return skunkapi.ValidKeyFormat(key)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "product_key":
		return "Invalid product."
	case "license_key":
		return "Invalid license key format."
	default:
		return e.Field() + " is invalid"
	}
}

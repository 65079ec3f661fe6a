// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/appointments/internal/errors"
)

var (
	// countryCodeRegex matches an upper-case ISO 3166-1 alpha-2 code
	countryCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// CountryCode validates an upper-case two letter country code
var CountryCode = validation.NewStringRuleWithError(
	func(s string) bool {
		return countryCodeRegex.MatchString(s)
	},
	validation.NewError("validation_country_code", "must be a two letter upper-case country code"),
)

// UUID validates that a string parses as a UUID
var UUID = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

package domain

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var fieldValidator = validator.New()

// IsEmailShaped reports whether s parses as an email address.
func IsEmailShaped(s string) bool {
	return s != "" && fieldValidator.Var(s, "email") == nil
}

// IsHexColor reports whether s is a #RGB or #RRGGBB color.
func IsHexColor(s string) bool {
	return fieldValidator.Var(s, "hexcolor") == nil
}

// checkLength validates the rune length of value against [min, max].
// A max of zero means unbounded.
func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		if min == 1 {
			return NewValidationError(field, "is required", nil)
		}
		return NewValidationError(field, "must be at least "+strconv.Itoa(min)+" characters", nil)
	}
	if max > 0 && n > max {
		return NewValidationError(field, "must be at most "+strconv.Itoa(max)+" characters", nil)
	}
	return nil
}

// checkOptionalLength is checkLength for fields that may be empty.
func checkOptionalLength(field, value string, min, max int) error {
	if value == "" {
		return nil
	}
	return checkLength(field, value, min, max)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "is required", nil)
	}
	return nil
}

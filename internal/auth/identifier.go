package auth

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// phonePattern accepts E.164-style numbers: optional +, no leading zero,
// 2 to 15 digits total.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidateIdentifier checks that id is usable as a user ID: non-empty and
// either an email address or a phone number. Enforced on signup only; an
// existing ID is trusted from then on.
func ValidateIdentifier(id string) error {
	if err := validation.Validate(id, validation.Required); err != nil {
		return ErrMissingField
	}
	if err := validation.Validate(id, is.Email); err == nil {
		return nil
	}
	if err := validation.Validate(id, validation.Match(phonePattern)); err == nil {
		return nil
	}
	return ErrInvalidIdentifier
}

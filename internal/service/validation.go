package service

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "!@#$%^&*"

// NewValidator returns a validator with the platform's custom rules
// registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registration-time password policy: at least 8 characters with upper,
	// lower, digit and one of !@#$%^&*. Login payloads deliberately skip
	// this rule so legacy passwords keep working.
	_ = v.RegisterValidation("regpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return v
}

// StrongPassword reports whether the password satisfies the registration
// complexity policy.
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}

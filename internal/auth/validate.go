// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package auth

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// MinPasswordLength is the minimum plaintext password length.
const MinPasswordLength = 6

// usernameRegex matches usernames of at least four characters built
// from letters, digits, underscores, and hyphens.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,}$`)

// phoneRegex matches exactly ten decimal digits.
var phoneRegex = regexp.MustCompile(`^\d{10}$`)

// allowedEmailSuffixes are the only top-level domains accepted for
// account email addresses.
var allowedEmailSuffixes = []string{".com", ".org", ".edu", ".gov"}

// RegisterInput is a registration submission before any rule has run.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	PhoneNumber string
}

// ValidateRegistration evaluates the full rule table against a
// submission. Every field is checked independently so the caller
// receives all violations at once, never just the first.
func ValidateRegistration(in RegisterInput) ValidationErrors {
	var violations ValidationErrors

	if v := validateUsername(in.Username); v != nil {
		violations = append(violations, *v)
	}
	if v := validateEmail(in.Email); v != nil {
		violations = append(violations, *v)
	}
	if v := validatePassword(in.Password); v != nil {
		violations = append(violations, *v)
	}
	if v := validatePhoneNumber(in.PhoneNumber); v != nil {
		violations = append(violations, *v)
	}

	return violations
}

func validateUsername(username string) *Violation {
	if username == "" {
		return &Violation{Field: "username", Message: "Username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return &Violation{
			Field:   "username",
			Message: "Username is invalid. Must be at least 4 characters long and contain only letters, numbers, underscores, or hyphens.",
		}
	}
	return nil
}

func validateEmail(email string) *Violation {
	if email == "" {
		return &Violation{Field: "email", Message: "Email is required"}
	}
	if !isValidEmail(email) {
		return &Violation{
			Field:   "email",
			Message: fmt.Sprintf("%s is not a valid email! Must end with .com, .org, .edu, or .gov.", email),
		}
	}
	return nil
}

func validatePassword(password string) *Violation {
	if password == "" {
		return &Violation{Field: "password", Message: "Password is required"}
	}
	if len(password) < MinPasswordLength {
		return &Violation{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength),
		}
	}
	return nil
}

// validatePhoneNumber treats an empty value as absent; the field is
// optional.
func validatePhoneNumber(phone string) *Violation {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return &Violation{Field: "phoneNumber", Message: "Phone number is invalid"}
	}
	return nil
}

// isValidEmail checks syntactic validity plus the allowed TLD suffixes.
// The address must parse as a bare addr-spec; display names and group
// syntax are rejected.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	for _, suffix := range allowedEmailSuffixes {
		if strings.HasSuffix(email, suffix) {
			return true
		}
	}
	return false
}

package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"shineal/internal/auth"
	apperrors "shineal/internal/errors"
)

const (
	minPasswordLength = 8
	minFullNameLength = 2
)

// User-facing validation messages.
const (
	MsgMissingSignupFields   = "Please provide all required fields"
	MsgMissingLoginFields    = "Please provide email and password"
	MsgMissingPasswordFields = "Please provide current and new password"
	MsgInvalidEmail          = "Please provide a valid email address"
	MsgPasswordTooShort      = "Password must be at least 8 characters long"
	MsgPasswordTooLong       = "Password must be at most 72 bytes long"
	MsgFullNameTooShort      = "Full name must be at least 2 characters"
	MsgNewPasswordTooShort   = "New password must be at least 8 characters"
	MsgNewPasswordTooLong    = "New password must be at most 72 bytes long"
	MsgNewPasswordUnchanged  = "New password must be different from current password"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateSignup(fullName, email, password string) error {
	if fullName == "" || email == "" || password == "" {
		return apperrors.NewValidationError(MsgMissingSignupFields)
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return apperrors.NewValidationError(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperrors.NewValidationError(MsgPasswordTooShort)
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError(MsgPasswordTooLong)
	}
	return validateFullName(fullName)
}

func validateLogin(email, password string) error {
	if email == "" || password == "" {
		return apperrors.NewValidationError(MsgMissingLoginFields)
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return apperrors.NewValidationError(MsgInvalidEmail)
	}
	return nil
}

func validateFullName(fullName string) error {
	if utf8.RuneCountInString(strings.TrimSpace(fullName)) < minFullNameLength {
		return apperrors.NewValidationError(MsgFullNameTooShort)
	}
	return nil
}

func validatePasswordChange(current, next string) error {
	if current == "" || next == "" {
		return apperrors.NewValidationError(MsgMissingPasswordFields)
	}
	if utf8.RuneCountInString(next) < minPasswordLength {
		return apperrors.NewValidationError(MsgNewPasswordTooShort)
	}
	if len(next) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError(MsgNewPasswordTooLong)
	}
	if next == current {
		return apperrors.NewValidationError(MsgNewPasswordUnchanged)
	}
	return nil
}

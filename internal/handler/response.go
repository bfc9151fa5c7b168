package handler

import (
	"github.com/labstack/echo/v4"

	"shineal/internal/auth"
	apperrors "shineal/internal/errors"
	"shineal/internal/model"
)

// ClaimsContextKey is where the auth middleware stores the verified claims.
const ClaimsContextKey = "user"

const msgInvalidBody = "Invalid request body"

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

// UserResponse is returned by profile reads and updates.
type UserResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    model.PublicUser `json:"user"`
}

// MessageResponse is a success envelope without a payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// bindAndValidate decodes the body into req and checks its required fields.
// Validation failures are reported with the endpoint's own message.
func bindAndValidate(c echo.Context, req any, missingMsg string) error {
	if err := c.Bind(req); err != nil {
		return apperrors.NewValidationError(msgInvalidBody)
	}
	if err := c.Validate(req); err != nil {
		return apperrors.NewValidationError(missingMsg)
	}
	return nil
}

func claimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "shineal/internal/errors"
	"shineal/internal/service"
)

// UserHandler serves user profiles.
type UserHandler struct {
	accountService service.AccountService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(accountService service.AccountService) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// UpdateUserRequest represents a profile update.
type UpdateUserRequest struct {
	FullName string `json:"fullName" validate:"required"`
}

// GetUser godoc
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	profile, err := h.accountService.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, UserResponse{
		Success: true,
		User:    profile,
	})
}

// UpdateUser godoc
// @Summary Update the caller's full name
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "New full name"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if claims.UserID != id {
		return apperrors.ErrForbidden
	}

	var req UpdateUserRequest
	if err := bindAndValidate(c, &req, service.MsgFullNameTooShort); err != nil {
		return err
	}

	updated, err := h.accountService.UpdateProfile(c.Request().Context(), id, req.FullName)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, UserResponse{
		Success: true,
		Message: "Profile updated successfully",
		User:    updated,
	})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cristianml/tomevault/internal/middleware"
	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/repository"
	"github.com/cristianml/tomevault/internal/utils"
)

// UserHandler exposes the self-service profile endpoints. All of them act
// on the authenticated principal only; nobody can reach another user's row
// through this surface.
type UserHandler struct {
	Users      *repository.UserRepo
	BcryptCost int
}

func NewUserHandler(users *repository.UserRepo, bcryptCost int) *UserHandler {
	return &UserHandler{Users: users, BcryptCost: bcryptCost}
}

// userResponse is the outward view of a user. The password hash never
// leaves the repository layer.
type userResponse struct {
	ID        uint64   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Address   string   `json:"address"`
	BirthDate string   `json:"birthDate,omitempty"`
	Roles     []string `json:"roles"`
	Enabled   bool     `json:"enabled"`
	Deleted   bool     `json:"deleted"`
}

func toUserResponse(u *model.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Address:   u.Address,
		Roles:     u.RoleNames(),
		Enabled:   u.Enabled,
		Deleted:   u.Deleted,
	}
	if u.BirthDate != nil {
		resp.BirthDate = u.BirthDate.Format("2006-01-02")
	}
	return resp
}

type profileUpdateRequest struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Address   string `json:"address"`
	BirthDate string `json:"birthDate"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Profile handles GET /user.
func (h *UserHandler) Profile(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(&u))
}

// UpdateProfile handles PUT /user/update. The username is the immutable
// login identifier and cannot be changed here.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	birth, err := parseDate(req.BirthDate)
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Birth date must be in yyyy-mm-dd format.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	u.Firstname = req.Firstname
	u.Lastname = req.Lastname
	u.Address = req.Address
	if birth != nil {
		u.BirthDate = birth
	}

	if err := h.Users.UpdateProfile(ctx, &u); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(&u))
}

// ChangePassword handles PUT /user/change-password. The current password
// must verify before the new one is accepted, and the new one must satisfy
// the password policy.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	if req.NewPassword != req.ConfirmPassword {
		return errBody(c, http.StatusBadRequest, "Passwords do not match.", "validation_error")
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return errBody(c, http.StatusBadRequest, "Current password is incorrect.", "validation_error")
	}

	hash, err := utils.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully.", "status": true})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/service"
)

// AuthHandler exposes login and signup. Both return the same AuthResponse
// shape on success; every login failure renders the uniform message with a
// machine errorCode so clients can branch without learning which part of
// the check failed.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type signUpRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Firstname       string `json:"firstname"`
	Lastname        string `json:"lastname"`
	Address         string `json:"address"`
	BirthDate       string `json:"birthDate"` // yyyy-mm-dd, optional
}

type authResponse struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	Status   bool   `json:"status"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		return errBody(c, http.StatusBadRequest, "Username and password are required.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, token, err := h.Auth.Authenticate(ctx, req.UsernameOrEmail, req.Password)
	if err != nil {
		if code := auth.ErrorCode(err); code != "" {
			// Account-status failures keep their distinct errorCode but
			// share the same outward message as bad credentials.
			return errBody(c, http.StatusUnauthorized, auth.UniformLoginMessage, code)
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, authResponse{
		Username: p.Username,
		Message:  "User logged in successfully.",
		Token:    token.Token,
		Status:   true,
	})
}

// SignUp handles POST /auth/sign-up. New accounts always get the default
// USER role; role escalation happens only through the admin endpoints.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}

	birth, err := parseDate(req.BirthDate)
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Birth date must be in yyyy-mm-dd format.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, p, token, err := h.Auth.Register(ctx, service.RegisterRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Firstname:       req.Firstname,
		Lastname:        req.Lastname,
		Address:         req.Address,
		BirthDate:       birth,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, authResponse{
		Username: p.Username,
		Message:  "User registered successfully.",
		Token:    token.Token,
		Status:   true,
	})
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

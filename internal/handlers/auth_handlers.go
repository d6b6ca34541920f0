package handlers

import (
	"log"
	"net/http"
	"strings"

	"freshkeeper/internal/common"
	"freshkeeper/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles signup and login.
type AuthHandlers struct {
	authService services.AuthService
}

func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account.
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return common.SendValidationError(c, "email", "Email is required")
	}
	if len(req.Password) < 6 {
		return common.SendValidationError(c, "password", "Password must be at least 6 characters")
	}

	user, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password, req.Name, req.Language)
	if err != nil {
		if strings.Contains(err.Error(), "already registered") {
			return common.SendConflictError(c, "Email is already registered")
		}
		log.Printf("signup failed for %s: %v", req.Email, err)
		return common.SendServerError(c, "Failed to create account")
	}

	return c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for a JWT.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return common.SendValidationError(c, "credentials", "Email and password are required")
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// Indistinguishable response for unknown email and wrong password.
		return common.SendUnauthorizedError(c)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

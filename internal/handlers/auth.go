package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/middleware"
	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/services"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service *services.Service
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service *services.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/signin", h.SignIn)
	g.POST("/logout", h.Logout)
}

// Register creates an account and signs it in
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	acc, err := h.service.Register(ctx, req.Handle, req.Password)
	if err != nil {
		return httpError(err)
	}
	sess, err := h.service.Authenticate(ctx, req.Handle, req.Password)
	if err != nil {
		return httpError(err)
	}

	return success(c, http.StatusCreated, echo.Map{
		"profile": acc.ToProfile(),
		"session": sess,
	})
}

// SignIn verifies credentials and issues a session token
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.service.Authenticate(c.Request().Context(), req.Handle, req.Password)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, sess)
}

// Logout revokes the bearer session token
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := middleware.BearerToken(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.Request().Context(), token); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

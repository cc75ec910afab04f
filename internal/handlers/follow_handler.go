package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/services"
)

// FollowHandler handles follow-related HTTP requests
type FollowHandler struct {
	service *services.Service
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(service *services.Service) *FollowHandler {
	return &FollowHandler{service: service}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:handle/follow", h.Follow)
	g.DELETE("/users/:handle/follow", h.Unfollow)
}

// Follow makes the caller follow :handle
func (h *FollowHandler) Follow(c echo.Context) error {
	status, err := h.service.Follow(c.Request().Context(), currentHandle(c), c.Param("handle"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, status)
}

// Unfollow removes the caller's follow of :handle
func (h *FollowHandler) Unfollow(c echo.Context) error {
	status, err := h.service.Unfollow(c.Request().Context(), currentHandle(c), c.Param("handle"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, status)
}

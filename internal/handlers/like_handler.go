package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/services"
)

// LikeHandler handles like and save toggles
type LikeHandler struct {
	service *services.Service
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(service *services.Service) *LikeHandler {
	return &LikeHandler{service: service}
}

// RegisterLikeRoutes registers like and save routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/videos/:id/like", h.ToggleLike)
	g.POST("/videos/:id/save", h.ToggleSave)
	g.GET("/saved", h.GetSaved)
}

// ToggleLike flips the caller's like on a video
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	res, err := h.service.ToggleLike(c.Request().Context(), currentHandle(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, res)
}

// ToggleSave flips a video in the caller's saved list
func (h *LikeHandler) ToggleSave(c echo.Context) error {
	id := c.Param("id")
	saved, err := h.service.ToggleSave(c.Request().Context(), currentHandle(c), id)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"video_id": id, "saved": saved})
}

// GetSaved returns the caller's saved videos
func (h *LikeHandler) GetSaved(c echo.Context) error {
	videos, err := h.service.Saved(c.Request().Context(), currentHandle(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"videos": videos})
}

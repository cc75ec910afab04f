package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/services"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	service *services.Service
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(service *services.Service) *CommentHandler {
	return &CommentHandler{service: service}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/videos/:id/comments", h.CreateComment)
	g.GET("/videos/:id/comments", h.GetComments)
}

// CreateComment appends a comment to a video
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.service.AddComment(c.Request().Context(), c.Param("id"), currentHandle(c), req.Text)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, comment)
}

// GetComments returns a video's comments oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	video, err := h.service.Video(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"comments": video.Comments})
}

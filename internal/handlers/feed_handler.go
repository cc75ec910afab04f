package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/services"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	service *services.Service
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(service *services.Service) *FeedHandler {
	return &FeedHandler{service: service}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// EnrichedVideo is a video with the caller's like and save flags
type EnrichedVideo struct {
	models.Video
	IsLiked bool `json:"is_liked"`
	IsSaved bool `json:"is_saved"`
}

// GetFeed returns the caller's feed
func (h *FeedHandler) GetFeed(c echo.Context) error {
	ctx := c.Request().Context()
	viewer := currentHandle(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	feed, err := h.service.ComposeFeedLimit(ctx, viewer, limit)
	if err != nil {
		return httpError(err)
	}
	ledger, err := h.service.Interactions(ctx, viewer)
	if err != nil {
		return httpError(err)
	}

	enriched := make([]EnrichedVideo, len(feed))
	for i, v := range feed {
		enriched[i] = EnrichedVideo{
			Video:   v,
			IsLiked: ledger.HasLiked(v.ID),
			IsSaved: ledger.HasSaved(v.ID),
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"videos": enriched,
		},
		"meta": echo.Map{
			"totalItems": len(enriched),
		},
	})
}

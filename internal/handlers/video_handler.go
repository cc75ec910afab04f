package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/blobstore"
	"github.com/anonto42/vidspace/backend/internal/services"
)

// maxMediaBytes bounds a single upload.
const maxMediaBytes = 100 << 20

// VideoHandler handles video-related HTTP requests
type VideoHandler struct {
	service *services.Service
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(service *services.Service) *VideoHandler {
	return &VideoHandler{service: service}
}

// RegisterVideoRoutes registers video routes
func (h *VideoHandler) RegisterVideoRoutes(g *echo.Group) {
	g.POST("/videos", h.UploadVideo)
	g.GET("/videos/:id", h.GetVideo)
	g.GET("/videos/:id/media", h.GetMedia)
	g.DELETE("/videos/:id", h.DeleteVideo)
	g.POST("/videos/:id/views", h.RecordView)
}

// UploadVideo accepts a multipart form with media, caption and hashtags
func (h *VideoHandler) UploadVideo(c echo.Context) error {
	data, err := readUpload(c, "media", maxMediaBytes)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	id, err := h.service.Upload(ctx, currentHandle(c), data, c.FormValue("caption"), c.FormValue("hashtags"))
	if err != nil {
		return httpError(err)
	}
	video, err := h.service.Video(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, video)
}

// GetVideo returns one video's metadata
func (h *VideoHandler) GetVideo(c echo.Context) error {
	video, err := h.service.Video(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, video)
}

// GetMedia streams inline media or redirects to where the media lives
func (h *VideoHandler) GetMedia(c echo.Context) error {
	ctx := c.Request().Context()
	video, err := h.service.Video(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return serveMedia(c, h.service.Blobs(), video.MediaRef)
}

// serveMedia streams the bytes behind ref or redirects to where they live.
func serveMedia(c echo.Context, blobs blobstore.Store, ref string) error {
	resolved, err := blobs.Resolve(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, blobstore.ErrUnknownReference) {
			return echo.NewHTTPError(http.StatusNotFound, "Media not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media store unavailable")
	}
	if resolved.RedirectURL != "" {
		return c.Redirect(http.StatusFound, resolved.RedirectURL)
	}
	return c.Blob(http.StatusOK, resolved.ContentType, resolved.Data)
}

// readUpload reads the multipart file field, rejecting files above limit.
func readUpload(c echo.Context, field string, limit int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Missing "+field+" file")
	}
	if fh.Size > limit {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Unreadable "+field+" file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Unreadable "+field+" file")
	}
	if int64(len(data)) > limit {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	}
	return data, nil
}

// DeleteVideo deletes one of the caller's videos
func (h *VideoHandler) DeleteVideo(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), currentHandle(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RecordView counts a view. It always succeeds.
func (h *VideoHandler) RecordView(c echo.Context) error {
	h.service.RecordView(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

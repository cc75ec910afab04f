package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/services"
)

// maxPictureBytes bounds a profile picture upload.
const maxPictureBytes = 10 << 20

// UserHandler handles profile-related HTTP requests
type UserHandler struct {
	service *services.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service *services.Service) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterProfileRoutes registers profile routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.PUT("/profile/picture", h.UploadProfilePic)
	g.GET("/users", h.ListUsers)
	g.GET("/users/:handle", h.GetUser)
	g.GET("/users/:handle/videos", h.GetUserVideos)
	g.GET("/users/:handle/picture", h.GetProfilePic)
}

// GetProfile returns the caller's own profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.service.Profile(c.Request().Context(), currentHandle(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, profile)
}

// UpdateProfile edits the caller's bio
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateBioRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.service.UpdateBio(ctx, currentHandle(c), req.Bio); err != nil {
		return httpError(err)
	}
	profile, err := h.service.Profile(ctx, currentHandle(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, profile)
}

// UploadProfilePic replaces the caller's profile picture from a multipart
// "picture" file
func (h *UserHandler) UploadProfilePic(c echo.Context) error {
	data, err := readUpload(c, "picture", maxPictureBytes)
	if err != nil {
		return err
	}
	profile, err := h.service.UploadProfilePic(c.Request().Context(), currentHandle(c), data)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, profile)
}

// GetProfilePic serves :handle's profile picture
func (h *UserHandler) GetProfilePic(c echo.Context) error {
	profile, err := h.service.Profile(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return httpError(err)
	}
	if profile.ProfilePic == "" {
		return echo.NewHTTPError(http.StatusNotFound, "No profile picture")
	}
	return serveMedia(c, h.service.Blobs(), profile.ProfilePic)
}

// ListUsers returns every other handle, for starting conversations
func (h *UserHandler) ListUsers(c echo.Context) error {
	handles, err := h.service.Accounts(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	me := currentHandle(c)
	others := make([]string, 0, len(handles))
	for _, handle := range handles {
		if handle != me {
			others = append(others, handle)
		}
	}
	return success(c, http.StatusOK, echo.Map{"users": others})
}

// GetUser returns another account's profile and whether the caller follows it
func (h *UserHandler) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	handle := c.Param("handle")

	profile, err := h.service.Profile(ctx, handle)
	if err != nil {
		return httpError(err)
	}
	following, err := h.service.IsFollowing(ctx, currentHandle(c), handle)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"profile": profile, "is_following": following})
}

// GetUserVideos returns an account's videos, newest first
func (h *UserHandler) GetUserVideos(c echo.Context) error {
	ctx := c.Request().Context()
	handle := c.Param("handle")

	if _, err := h.service.Profile(ctx, handle); err != nil {
		return httpError(err)
	}
	videos, err := h.service.VideosBy(ctx, handle)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"videos": videos})
}

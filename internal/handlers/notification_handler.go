package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/services"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	service *services.Service
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *services.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// GetNotifications returns the caller's notifications newest first, paginated
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > models.MaxNotifications {
		limit = 20
	}

	notifications, err := h.service.Notifications(c.Request().Context(), currentHandle(c))
	if err != nil {
		return httpError(err)
	}

	total := len(notifications)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": notifications[start:end],
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.service.UnreadNotifications(c.Request().Context(), currentHandle(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if err := h.service.MarkAllRead(c.Request().Context(), currentHandle(c)); err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"success": true})
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/services"
)

// MessageHandler handles direct-message HTTP requests
type MessageHandler struct {
	service *services.Service
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service *services.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// RegisterMessageRoutes registers messaging routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/messages", h.GetThreads)
	g.GET("/messages/unread-count", h.GetUnreadCount)
	g.GET("/messages/:handle", h.GetHistory)
	g.POST("/messages/:handle", h.SendMessage)
	g.PUT("/messages/:handle/read", h.MarkThreadRead)
}

// GetThreads lists the handles the caller has conversations with
func (h *MessageHandler) GetThreads(c echo.Context) error {
	threads, err := h.service.Threads(c.Request().Context(), currentHandle(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"threads": threads})
}

// GetUnreadCount returns how many messages the caller has not read
func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.service.UnreadMessages(c.Request().Context(), currentHandle(c))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// GetHistory returns the conversation with :handle, oldest first
func (h *MessageHandler) GetHistory(c echo.Context) error {
	messages, err := h.service.History(c.Request().Context(), currentHandle(c), c.Param("handle"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"messages": messages})
}

// SendMessage sends a message to :handle
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.service.Send(c.Request().Context(), currentHandle(c), c.Param("handle"), req.Text, req.VideoID)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, msg)
}

// MarkThreadRead marks every message from :handle to the caller as read
func (h *MessageHandler) MarkThreadRead(c echo.Context) error {
	n, err := h.service.MarkThreadRead(c.Request().Context(), currentHandle(c), c.Param("handle"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"marked": n})
}

// Package api provides the HTTP handlers for the travel advisor.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tomvane/innocents/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	chat *service.ChatService
}

// NewHandler creates a new handler.
func NewHandler(chat *service.ChatService) *Handler {
	return &Handler{chat: chat}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/chat/message", h.PostMessage)
	e.GET("/chat/conversations", h.ListConversations)
	e.GET("/chat/conversations/:conversation_id/messages", h.GetConversationMessages)
	e.DELETE("/chat/conversations/:conversation_id", h.DeleteConversation)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

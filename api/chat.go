package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tomvane/innocents/domain"
)

// PostMessage processes one chat turn.
// POST /chat/message
func (h *Handler) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
			"code":  "INVALID_REQUEST",
		})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "no message provided",
			"code":  "NO_MESSAGE_PROVIDED",
		})
	}

	resp, err := h.chat.HandleMessage(ctx, req)
	if err != nil {
		log.Printf("ERROR: failed to handle message: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to process message",
			"code":  "INTERNAL_ERROR",
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// ListConversations returns all conversations, most recently active first.
// GET /chat/conversations
func (h *Handler) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()

	conversations, err := h.chat.ListConversations(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list conversations: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list conversations",
			"code":  "INTERNAL_ERROR",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversations": conversations,
	})
}

// GetConversationMessages returns a conversation's full history in order.
// GET /chat/conversations/:conversation_id/messages
func (h *Handler) GetConversationMessages(c echo.Context) error {
	ctx := c.Request().Context()
	conversationID := c.Param("conversation_id")

	messages, err := h.chat.GetHistory(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "conversation not found",
				"code":  "CONVERSATION_NOT_FOUND",
			})
		}
		log.Printf("ERROR: failed to get messages: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to get messages",
			"code":  "INTERNAL_ERROR",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"messages":        messages,
	})
}

// DeleteConversation removes a conversation and its messages.
// DELETE /chat/conversations/:conversation_id
func (h *Handler) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()
	conversationID := c.Param("conversation_id")

	if err := h.chat.DeleteConversation(ctx, conversationID); err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "conversation not found",
				"code":  "CONVERSATION_NOT_FOUND",
			})
		}
		log.Printf("ERROR: failed to delete conversation: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to delete conversation",
			"code":  "INTERNAL_ERROR",
		})
	}

	return c.NoContent(http.StatusNoContent)
}

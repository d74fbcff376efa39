package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vblinov/beamchat-server/internal/chat"
	"github.com/vblinov/beamchat-server/internal/proto"
	"github.com/vblinov/beamchat-server/internal/store"
)

// MessageHandlers provides HTTP handlers for messaging endpoints.
type MessageHandlers struct {
	chat *chat.Service
	log  *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(chatService *chat.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		chat: chatService,
		log:  logger,
	}
}

// SendMessageRequest represents the send message request body.
type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// SidebarUsers lists every user except the viewer.
// GET /api/messages/users
func (h *MessageHandlers) SidebarUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := h.chat.SidebarUsers(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list sidebar users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userResponses(users))
}

// ListConversations returns the viewer's conversation summaries, most recent
// first.
// GET /api/messages/conversations
func (h *MessageHandlers) ListConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	conversations, err := h.chat.ListConversations(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// DeleteConversation removes all messages with the given user.
// DELETE /api/messages/conversations/:id
func (h *MessageHandlers) DeleteConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherID := c.Param("id")
	if err := h.chat.DeleteConversation(c.Request.Context(), userID, otherID); err != nil {
		h.log.Error().Err(err).Str("other_id", otherID).Msg("failed to delete conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

// ListMessages returns the full history with the given user, oldest first.
// GET /api/messages/:id
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherID := c.Param("id")
	messages, err := h.chat.ListMessages(c.Request.Context(), userID, otherID)
	if err != nil {
		h.log.Error().Err(err).Str("other_id", otherID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]proto.MessagePayload, 0, len(messages))
	for _, msg := range messages {
		response = append(response, proto.FromMessage(msg))
	}

	c.JSON(http.StatusOK, response)
}

// SendMessage persists a message to the given user and triggers the realtime
// pushes.
// POST /api/messages/send/:id
func (h *MessageHandlers) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	receiverID := c.Param("id")
	msg, err := h.chat.SendMessage(c.Request.Context(), userID, receiverID, req.Text, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrSelfMessage):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "receiver not found"})
		default:
			h.log.Error().Err(err).Str("receiver_id", receiverID).Msg("failed to send message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, proto.FromMessage(msg))
}

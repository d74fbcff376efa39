package proto

import (
	"time"

	"github.com/vblinov/beamchat-server/internal/store"
)

// Client-visible event names. These are a wire contract shared with the
// frontend; renaming one breaks deployed clients.
const (
	// EventNewMessage delivers a freshly persisted message to its receiver.
	EventNewMessage = "newMessage"
	// EventOnlineUsers carries the full snapshot of online user IDs.
	EventOnlineUsers = "getOnlineUsers"
	// EventConversationUpdate carries a refreshed sidebar summary.
	EventConversationUpdate = "conversationUpdate"
	// EventConversationDeleted carries the ID of the user who deleted the
	// conversation.
	EventConversationDeleted = "conversationDeleted"
)

// Push is the envelope for events sent to the client over the websocket.
type Push struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MessagePayload is the wire shape of a persisted message.
type MessagePayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromMessage converts a stored message to its wire shape.
func FromMessage(m *store.Message) MessagePayload {
	return MessagePayload{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		Image:      m.Image,
		CreatedAt:  m.CreatedAt,
	}
}

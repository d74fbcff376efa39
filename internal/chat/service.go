// Package chat implements direct-message flows and the conversation
// aggregation that feeds the sidebar.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vblinov/beamchat-server/internal/proto"
	"github.com/vblinov/beamchat-server/internal/realtime"
	"github.com/vblinov/beamchat-server/internal/store"
)

var (
	// ErrEmptyMessage is returned when a message has neither text nor image.
	ErrEmptyMessage = errors.New("message must contain text or an image")
	// ErrSelfMessage is returned when sender and receiver are the same user.
	ErrSelfMessage = errors.New("cannot message yourself")
	// ErrNoConversation is returned when two users have no shared history.
	ErrNoConversation = errors.New("no conversation")
)

// ConversationSummary is a derived sidebar projection: the counterpart's
// profile joined with the most recent message and the total message count.
// It is recomputed on demand and never persisted.
type ConversationSummary struct {
	UserID          string    `json:"id"`
	FullName        string    `json:"fullName"`
	Email           string    `json:"email"`
	ProfilePic      string    `json:"profilePic"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	MessageCount    int       `json:"messageCount"`
}

// Service provides message sending, history, and conversation aggregation.
type Service struct {
	store  store.Store
	router *realtime.Router
	log    *zerolog.Logger
}

// NewService creates a new chat service.
func NewService(st store.Store, router *realtime.Router, logger *zerolog.Logger) *Service {
	return &Service{
		store:  st,
		router: router,
		log:    logger,
	}
}

// SendMessage persists a message and then notifies the live layer: the
// receiver gets the new message, both participants get refreshed
// conversation summaries. The persistence write commits first; push
// delivery is best effort and a missed push is reconciled by the client's
// next full fetch.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, text, image string) (*store.Message, error) {
	if text == "" && image == "" {
		return nil, ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}

	msg := &store.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	s.router.PushToUser(ctx, receiverID, proto.EventNewMessage, proto.FromMessage(msg))
	s.pushSummary(ctx, senderID, receiverID)
	s.pushSummary(ctx, receiverID, senderID)

	return msg, nil
}

// pushSummary recomputes the viewer's summary for the counterpart and pushes
// it to the viewer's connection, if any.
func (s *Service) pushSummary(ctx context.Context, viewerID, counterpartID string) {
	summary, err := s.SummarizeConversation(ctx, viewerID, counterpartID)
	if err != nil {
		if !errors.Is(err, ErrNoConversation) {
			s.log.Warn().Err(err).Str("viewer", viewerID).Msg("summarize conversation")
		}
		return
	}
	s.router.PushToUser(ctx, viewerID, proto.EventConversationUpdate, summary)
}

// ListMessages returns the full history between the viewer and another user,
// oldest first.
func (s *Service) ListMessages(ctx context.Context, viewerID, otherID string) ([]*store.Message, error) {
	return s.store.ListMessagesBetween(ctx, viewerID, otherID)
}

// SummarizeConversation builds the viewer's summary for one counterpart.
// Returns ErrNoConversation when the two users have no shared history or the
// counterpart no longer exists; an empty relationship is never shown.
func (s *Service) SummarizeConversation(ctx context.Context, viewerID, counterpartID string) (*ConversationSummary, error) {
	msgs, err := s.store.ListMessagesBetween(ctx, viewerID, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, ErrNoConversation
	}

	counterpart, err := s.store.GetUserByID(ctx, counterpartID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoConversation
		}
		return nil, fmt.Errorf("get counterpart: %w", err)
	}

	last := msgs[len(msgs)-1]
	return &ConversationSummary{
		UserID:          counterpart.ID,
		FullName:        counterpart.FullName,
		Email:           counterpart.Email,
		ProfilePic:      counterpart.ProfilePic,
		LastMessage:     last.Text,
		LastMessageTime: last.CreatedAt,
		MessageCount:    len(msgs),
	}, nil
}

// ListConversations groups every message involving the viewer by counterpart
// and reduces each group to a summary, most recent conversation first.
// One summary per distinct counterpart, never the viewer itself.
func (s *Service) ListConversations(ctx context.Context, viewerID string) ([]*ConversationSummary, error) {
	msgs, err := s.store.ListMessagesWith(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	type group struct {
		lastText string
		lastTime time.Time
		count    int
	}
	groups := make(map[string]*group)
	var order []string // counterparts in first-seen order, keeps ties stable

	for _, msg := range msgs {
		counterpartID := msg.SenderID
		if counterpartID == viewerID {
			counterpartID = msg.ReceiverID
		}
		if counterpartID == viewerID {
			continue
		}
		g, ok := groups[counterpartID]
		if !ok {
			g = &group{}
			groups[counterpartID] = g
			order = append(order, counterpartID)
		}
		// Messages arrive oldest first, so the running value is the latest.
		g.lastText = msg.Text
		g.lastTime = msg.CreatedAt
		g.count++
	}

	summaries := make([]*ConversationSummary, 0, len(groups))
	for _, counterpartID := range order {
		counterpart, err := s.store.GetUserByID(ctx, counterpartID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get counterpart: %w", err)
		}
		g := groups[counterpartID]
		summaries = append(summaries, &ConversationSummary{
			UserID:          counterpart.ID,
			FullName:        counterpart.FullName,
			Email:           counterpart.Email,
			ProfilePic:      counterpart.ProfilePic,
			LastMessage:     g.lastText,
			LastMessageTime: g.lastTime,
			MessageCount:    g.count,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTime.After(summaries[j].LastMessageTime)
	})

	return summaries, nil
}

// DeleteConversation removes all messages between the viewer and the other
// user, then notifies the other user that the conversation is gone.
func (s *Service) DeleteConversation(ctx context.Context, viewerID, otherID string) error {
	deleted, err := s.store.DeleteMessagesBetween(ctx, viewerID, otherID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	s.log.Info().
		Str("viewer", viewerID).
		Str("other", otherID).
		Int64("deleted", deleted).
		Msg("conversation deleted")

	s.router.PushToUser(ctx, otherID, proto.EventConversationDeleted, viewerID)
	return nil
}

// SidebarUsers lists every user except the viewer for the contact sidebar.
func (s *Service) SidebarUsers(ctx context.Context, viewerID string) ([]*store.User, error) {
	return s.store.ListUsersExcept(ctx, viewerID)
}

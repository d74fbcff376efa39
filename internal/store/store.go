package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           string // UUID
	Email        string
	FullName     string
	PasswordHash string
	ProfilePic   string
	CreatedAt    time.Time
}

// Message represents a persisted direct message between two users.
// A message carries text, an image reference, or both.
type Message struct {
	ID         string // UUID
	SenderID   string
	ReceiverID string
	Text       string
	Image      string // opaque image URL/reference, uploaded elsewhere
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a new user with a hashed password.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile updates mutable profile fields (full name, profile pic).
	// Empty values leave the existing field untouched.
	UpdateProfile(ctx context.Context, id, fullName, profilePic string) (*User, error)

	// ListUsersExcept lists all users except the given one, newest first.
	ListUsersExcept(ctx context.Context, id string) ([]*User, error)

	// SearchUsers searches users by full name or email substring.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message. The store assigns CreatedAt if zero.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessagesBetween returns all messages exchanged between two users
	// in insertion order (oldest first).
	ListMessagesBetween(ctx context.Context, idA, idB string) ([]*Message, error)

	// ListMessagesWith returns every message the user sent or received,
	// in insertion order. Used for conversation aggregation.
	ListMessagesWith(ctx context.Context, userID string) ([]*Message, error)

	// LastMessageBetween returns the most recent message between two users,
	// or ErrNotFound if they have no shared history.
	LastMessageBetween(ctx context.Context, idA, idB string) (*Message, error)

	// DeleteMessagesBetween removes all messages between two users in both
	// directions and reports how many rows were deleted.
	DeleteMessagesBetween(ctx context.Context, idA, idB string) (int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}

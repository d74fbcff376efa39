package http

import (
	"time"

	"github.com/vblinov/beamchat-server/internal/store"
)

// UserResponse represents a user in API responses. Password hashes never
// leave the store layer.
type UserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

func userResponses(users []*store.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u))
	}
	return out
}

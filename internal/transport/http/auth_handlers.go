package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vblinov/beamchat-server/internal/auth"
	"github.com/vblinov/beamchat-server/internal/store"
)

// AuthHandlers provides HTTP handlers for account endpoints.
type AuthHandlers struct {
	authService *auth.Service
	store       store.UserStore
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(authService *auth.Service, st store.UserStore, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		store:       st,
		log:         logger,
	}
}

// SignupRequest represents the signup request body.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required,min=1,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents the profile update request body.
// Empty fields are left unchanged.
type UpdateProfileRequest struct {
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Signup handles user registration.
// POST /api/auth/signup
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid signup request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, user, err := h.authService.Signup(c.Request.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("email", req.Email).Msg("failed to sign up user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("email", user.Email).Msg("user signed up")
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: userResponse(user)})
}

// Login handles user login.
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("email", user.Email).Msg("user logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: userResponse(user)})
}

// Check returns the authenticated user's profile.
// GET /api/auth/check
func (h *AuthHandlers) Check(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// UpdateProfile updates the authenticated user's profile fields.
// PUT /api/auth/update-profile
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.FullName == "" && req.ProfilePic == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "nothing to update"})
		return
	}

	user, err := h.store.UpdateProfile(c.Request.Context(), userID, req.FullName, req.ProfilePic)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// SearchUsers searches users by name or email.
// GET /api/auth/search?q=query
func (h *AuthHandlers) SearchUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	query := c.Query("q")
	if len(query) < 2 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search query must be at least 2 characters"})
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		// don't show self in search results
		if u.ID == userID {
			continue
		}
		response = append(response, userResponse(u))
	}

	c.JSON(http.StatusOK, response)
}

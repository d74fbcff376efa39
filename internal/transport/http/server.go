package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vblinov/beamchat-server/internal/auth"
	"github.com/vblinov/beamchat-server/internal/chat"
	"github.com/vblinov/beamchat-server/internal/config"
	"github.com/vblinov/beamchat-server/internal/presence"
	"github.com/vblinov/beamchat-server/internal/realtime"
	"github.com/vblinov/beamchat-server/internal/store"
)

// NewServer builds the HTTP server with all REST and websocket routes.
// The websocket endpoint is mounted on the outer mux, not inside gin:
// websocket.Accept must hijack the raw connection, and gin's buffered
// ResponseWriter breaks the upgrade.
func NewServer(
	registry *presence.Registry,
	router *realtime.Router,
	authService *auth.Service,
	chatService *chat.Service,
	st store.Store,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	authHandlers := NewAuthHandlers(authService, st, logger)
	messageHandlers := NewMessageHandlers(chatService, logger)

	api := engine.Group("/api")
	api.POST("/auth/signup", authHandlers.Signup)
	api.POST("/auth/login", authHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/auth/check", authHandlers.Check)
	authed.PUT("/auth/update-profile", authHandlers.UpdateProfile)
	authed.GET("/auth/search", authHandlers.SearchUsers)

	authed.GET("/messages/users", messageHandlers.SidebarUsers)
	authed.GET("/messages/conversations", messageHandlers.ListConversations)
	authed.DELETE("/messages/conversations/:id", messageHandlers.DeleteConversation)
	authed.GET("/messages/:id", messageHandlers.ListMessages)
	authed.POST("/messages/send/:id", messageHandlers.SendMessage)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(registry, router, authService, logger))
	mux.Handle("/", engine)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

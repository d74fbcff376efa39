// Package realtime routes push events to live connections.
package realtime

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/vblinov/beamchat-server/internal/presence"
)

// Router resolves user identities against the presence registry and pushes
// events to their connections. Delivery is fire-and-forget: an offline user
// simply misses the event, a transport error is dropped. Durable state lives
// only in the store; clients reconcile on their next full fetch.
type Router struct {
	registry *presence.Registry
	log      *zerolog.Logger
}

// NewRouter creates a router backed by the given registry.
func NewRouter(registry *presence.Registry, logger *zerolog.Logger) *Router {
	return &Router{registry: registry, log: logger}
}

// PushToUser delivers an event to the user's connection if one is registered.
// Unknown or offline users are not an error.
func (rt *Router) PushToUser(ctx context.Context, userID, event string, data any) {
	conn, ok := rt.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := conn.Send(ctx, event, data); err != nil {
		// Dead or slow connection; its close path will unregister it.
		rt.log.Debug().Err(err).Str("user_id", userID).Str("event", event).Msg("drop push")
	}
}

// BroadcastAll delivers an event to every registered connection.
func (rt *Router) BroadcastAll(ctx context.Context, event string, data any) {
	for _, conn := range rt.registry.Conns() {
		if err := conn.Send(ctx, event, data); err != nil {
			rt.log.Debug().Err(err).Str("event", event).Msg("drop broadcast")
		}
	}
}

package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/vblinov/beamchat-server/internal/auth"
	"github.com/vblinov/beamchat-server/internal/presence"
	"github.com/vblinov/beamchat-server/internal/proto"
	"github.com/vblinov/beamchat-server/internal/realtime"
)

// sendQueueSize bounds the per-connection push buffer. A client that cannot
// drain this many events is a slow consumer and starts losing pushes.
const sendQueueSize = 32

// errSlowConsumer is returned by wsConn.Send when the push buffer is full.
var errSlowConsumer = errors.New("send queue full")

// WSHandler upgrades HTTP connections to websockets and manages the
// connection lifecycle: identity verification, presence registration, online
// snapshot broadcasts, and cleanup on disconnect.
type WSHandler struct {
	registry *presence.Registry
	router   *realtime.Router
	auth     *auth.Service
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *presence.Registry, router *realtime.Router, authService *auth.Service, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		registry: registry,
		router:   router,
		auth:     authService,
		log:      logger,
	}
}

// wsConn adapts a websocket connection to presence.Conn. Pushes are queued
// to a buffered channel drained by the write loop, so Send never blocks the
// caller; a full queue drops the event.
type wsConn struct {
	events chan proto.Push
}

func newWSConn() *wsConn {
	return &wsConn{events: make(chan proto.Push, sendQueueSize)}
}

func (c *wsConn) Send(_ context.Context, event string, data any) error {
	select {
	case c.events <- proto.Push{Event: event, Data: data}:
		return nil
	default:
		return errSlowConsumer
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	// Identity is verified here with the same JWT as the REST API; the
	// registry never holds a client-claimed identity. A missing or invalid
	// token leaves the connection anonymous: it is served but never
	// registered and receives no events.
	userID := h.identify(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := newWSConn()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if userID != "" {
		h.registry.Register(userID, client)
		h.router.BroadcastAll(ctx, proto.EventOnlineUsers, h.registry.Online())
		h.log.Debug().Str("user_id", userID).Msg("ws registered")

		// Unregister with the identity captured at connect time; the
		// registry entry may already belong to a newer connection.
		defer func() {
			h.registry.Unregister(userID)
			h.router.BroadcastAll(context.Background(), proto.EventOnlineUsers, h.registry.Online())
			h.log.Debug().Str("user_id", userID).Msg("ws unregistered")
		}()
	} else {
		h.log.Debug().Msg("ws connection without identity, not registered")
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// identify extracts and validates the JWT from the upgrade request.
// Returns the empty string when the connection is anonymous.
func (h *WSHandler) identify(r *stdhttp.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		return ""
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws token rejected")
		return ""
	}
	return claims.UserID
}

// readLoop drains inbound frames until the client disconnects. Clients send
// chat traffic over REST, so inbound payloads are ignored; the loop exists to
// observe the close.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsConn) error {
	for {
		select {
		case push := <-client.events:
			if err := wsjson.Write(ctx, conn, push); err != nil {
				h.log.Debug().Err(err).Str("event", push.Event).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

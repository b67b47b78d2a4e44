package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: only for dev
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeChatWS attaches a connection to a chat room's fanout group.
func (h *Handler) ServeChatWS(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "room")
	userID := domain.UserID(r.URL.Query().Get("user_id"))
	if roomName == "" || userID == "" {
		http.Error(w, "room and user_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(conn, domain.KindChat, roomName, userID)
	key := domain.ChatRoom(roomName)

	l := log.With().
		Str("client_id", client.ID().String()).
		Str("user_id", userID.String()).
		Str("room", roomName).
		Logger()
	l.Info().Msg("Chat client connected")

	go client.writePump()
	h.Bus.Subscribe(key, client)

	defer func() {
		h.Bus.Unsubscribe(key, client)
		client.Close()
		// whoever is left gets a fresh snapshot, and a user whose last room
		// socket is gone no longer counts as streaming
		ctx := context.Background()
		stillConnected := false
		for _, u := range h.Bus.ConnectedUsers(key) {
			if u == userID {
				stillConnected = true
				break
			}
		}
		if !stillConnected {
			if err := h.Calls.Reap(ctx, roomName, userID); err != nil {
				l.Error().Err(err).Msg("Failed to reap call membership on disconnect")
			}
		}
		if err := h.Presence.BroadcastPresence(ctx, roomName); err != nil {
			l.Error().Err(err).Msg("Failed to broadcast presence on disconnect")
		}
		if err := h.Presence.BroadcastRoomInfo(ctx, roomName); err != nil {
			l.Error().Err(err).Msg("Failed to broadcast room info on disconnect")
		}
		l.Info().Msg("Chat client disconnected")
	}()

	h.readLoop(r.Context(), client, conn, l)
}

// ServeInboxWS attaches a connection to the user's personal notification
// channel.
func (h *Handler) ServeInboxWS(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(chi.URLParam(r, "user"))
	if userID == "" {
		http.Error(w, "user required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(conn, domain.KindInbox, string(userID), userID)
	key := domain.InboxChannel(userID)

	l := log.With().
		Str("client_id", client.ID().String()).
		Str("user_id", userID.String()).
		Logger()
	l.Info().Msg("Inbox client connected")

	go client.writePump()
	h.Bus.Subscribe(key, client)

	defer func() {
		h.Bus.Unsubscribe(key, client)
		client.Close()
		l.Info().Msg("Inbox client disconnected")
	}()

	h.readLoop(r.Context(), client, conn, l)
}

// ServeCallWS attaches a connection to a call room. Call sockets carry a
// token; a bad or expired one closes the connection and nothing else.
func (h *Handler) ServeCallWS(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "room")
	token := r.URL.Query().Get("token")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	identity, err := h.Verifier.Verify(token)
	if err != nil {
		log.Warn().Err(err).Str("room", roomName).Msg("Rejected call connection")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
		conn.Close()
		return
	}

	client := newWSClient(conn, domain.KindCall, roomName, identity.UserID)
	key := domain.CallRoom(roomName)

	l := log.With().
		Str("client_id", client.ID().String()).
		Str("user_id", identity.UserID.String()).
		Str("room", roomName).
		Logger()
	l.Info().Msg("Call client connected")

	go client.writePump()
	h.Bus.Subscribe(key, client)

	if err := h.Calls.Connect(r.Context(), roomName, identity.UserID); err != nil {
		l.Error().Err(err).Msg("Failed to announce call join")
	}

	defer func() {
		h.Bus.Unsubscribe(key, client)
		client.Close()
		if err := h.Calls.Disconnect(context.Background(), roomName, identity.UserID); err != nil {
			l.Error().Err(err).Msg("Failed to announce call leave")
		}
		l.Info().Msg("Call client disconnected")
	}()

	h.readLoop(r.Context(), client, conn, l)
}

// readLoop pumps inbound frames through the event router. A malformed or
// failing event is logged and dropped; only a dead socket ends the loop.
func (h *Handler) readLoop(ctx context.Context, client *wsClient, conn *websocket.Conn, l zerolog.Logger) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			return
		}

		if err := h.Router.Handle(ctx, client, frame); err != nil {
			switch {
			case errors.Is(err, domain.ErrMalformedEvent):
				l.Warn().Err(err).Msg("Dropping malformed event")
			default:
				l.Error().Err(err).Msg("Event handler failed")
			}
		}
	}
}

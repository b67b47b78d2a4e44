package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Hub implements port.Bus. It is both the connection registry and the room
// fanout: every live connection is subscribed under a room key, and a
// publish walks the key's subscribers while holding that room's lock, so
// events published to one key arrive in submission order. Unrelated rooms
// never share a lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[domain.RoomKey]*room

	// forward, when set, mirrors every local publish to a cross-process
	// backbone (see bus/nats).
	forward func(key domain.RoomKey, data []byte)
}

type room struct {
	mu   sync.Mutex
	subs map[domain.ConnectionID]port.Client
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[domain.RoomKey]*room),
	}
}

// SetForward installs the cross-process mirror. Must be called before the
// hub starts serving connections.
func (h *Hub) SetForward(fn func(key domain.RoomKey, data []byte)) {
	h.forward = fn
}

// Subscribe adds the connection under h.mu so it serializes with the
// empty-room reap in Unsubscribe; a subscriber can never land on a room
// object that has already been removed from the registry.
func (h *Hub) Subscribe(key domain.RoomKey, c port.Client) {
	h.mu.Lock()
	r, ok := h.rooms[key]
	if !ok {
		r = &room{subs: make(map[domain.ConnectionID]port.Client)}
		h.rooms[key] = r
	}
	r.mu.Lock()
	r.subs[c.ID()] = c
	r.mu.Unlock()
	h.mu.Unlock()

	log.Debug().Str("room", key.String()).Str("client_id", c.ID().String()).Msg("Client subscribed")
}

// Unsubscribe is idempotent: removing a connection that is already gone is
// a no-op.
func (h *Hub) Unsubscribe(key domain.RoomKey, c port.Client) {
	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	_, present := r.subs[c.ID()]
	delete(r.subs, c.ID())
	empty := len(r.subs) == 0
	r.mu.Unlock()

	if empty {
		h.mu.Lock()
		// re-check under the write lock; a subscriber may have raced in
		r.mu.Lock()
		if len(r.subs) == 0 {
			delete(h.rooms, key)
		}
		r.mu.Unlock()
		h.mu.Unlock()
	}

	if present {
		log.Debug().Str("room", key.String()).Str("client_id", c.ID().String()).Msg("Client unsubscribed")
	}
}

func (h *Hub) Publish(ctx context.Context, key domain.RoomKey, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.fanout(key, data)
	if h.forward != nil {
		h.forward(key, data)
	}
	return nil
}

// fanout delivers an encoded frame to the key's local subscribers.
func (h *Hub) fanout(key domain.RoomKey, data []byte) {
	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.subs {
		if err := c.Deliver(data); err != nil {
			// connection is gone; drop it from the room, not an error for
			// the publisher
			log.Debug().Err(err).Str("client_id", id.String()).Msg("Dropping dead subscriber")
			delete(r.subs, id)
		}
	}
}

// Fanout delivers a pre-encoded frame locally only. Used by the backbone
// bridge to inject events received from other processes.
func (h *Hub) Fanout(key domain.RoomKey, data []byte) {
	h.fanout(key, data)
}

func (h *Hub) SendToUser(ctx context.Context, key domain.RoomKey, userID domain.UserID, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.subs {
		if c.UserID() != userID {
			continue
		}
		if err := c.Deliver(data); err != nil {
			delete(r.subs, id)
		}
	}
	return nil
}

func (h *Hub) ConnectedUsers(key domain.RoomKey) []domain.UserID {
	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[domain.UserID]struct{}, len(r.subs))
	users := make([]domain.UserID, 0, len(r.subs))
	for _, c := range r.subs {
		if _, ok := seen[c.UserID()]; ok {
			continue
		}
		seen[c.UserID()] = struct{}{}
		users = append(users, c.UserID())
	}
	return users
}

// Stop closes every registered connection.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, r := range h.rooms {
		r.mu.Lock()
		for id, c := range r.subs {
			if err := c.Close(); err != nil {
				log.Error().Err(err).Str("client_id", id.String()).Msg("Error closing client connection")
			}
			delete(r.subs, id)
		}
		r.mu.Unlock()
		delete(h.rooms, key)
	}
}

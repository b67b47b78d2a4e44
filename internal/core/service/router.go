package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
)

// Connection is what the router needs to know about the socket an event
// arrived on.
type Connection interface {
	ID() domain.ConnectionID
	UserID() domain.UserID
	Kind() domain.ConnectionKind
	RoomName() string
	Deliver(data []byte) error
}

// Router classifies inbound frames by their type field and dispatches to
// the owning service. A malformed frame is dropped with ErrMalformedEvent;
// the connection is never closed for it, and a failing handler never
// affects other connections.
type Router struct {
	bus      port.Bus
	presence *PresenceService
	calls    *CallService
	signals  *SignalService
	inboxes  *InboxService
}

func NewRouter(bus port.Bus, presence *PresenceService, calls *CallService, signals *SignalService, inboxes *InboxService) *Router {
	return &Router{
		bus:      bus,
		presence: presence,
		calls:    calls,
		signals:  signals,
		inboxes:  inboxes,
	}
}

func (r *Router) Handle(ctx context.Context, c Connection, frame []byte) error {
	var env domain.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return fmt.Errorf("%w: missing type", domain.ErrMalformedEvent)
	}

	room := c.RoomName()
	user := env.UserID
	if user == "" {
		user = c.UserID()
	}

	switch env.Type {
	case domain.EventGetInboxes:
		event, err := r.inboxes.Inboxes(ctx, c.UserID(), env.Start, env.Count)
		if err != nil {
			return err
		}
		return r.reply(c, event)

	case domain.EventUserConnected, domain.EventUserDisconnected:
		if err := r.presence.BroadcastPresence(ctx, room); err != nil {
			return err
		}
		return r.presence.BroadcastRoomInfo(ctx, room)

	case domain.EventUserJoinedVideoRoom:
		return r.calls.Join(ctx, room, user)

	case domain.EventUserLeftVideoRoom:
		return r.calls.Leave(ctx, room, user)

	case domain.EventVideoCallStarted:
		return r.calls.Start(ctx, room, user)

	case domain.EventLeaveVideoCall:
		return r.calls.End(ctx, room, user)

	case domain.EventOffer:
		if len(env.Offer) == 0 {
			return fmt.Errorf("%w: offer payload missing", domain.ErrMalformedEvent)
		}
		return r.signals.Offer(ctx, room, c.UserID(), env.Offer)

	case domain.EventAnswer:
		if len(env.Answer) == 0 || env.ToUserID == "" {
			return fmt.Errorf("%w: answer payload or target missing", domain.ErrMalformedEvent)
		}
		return r.signals.Answer(ctx, room, c.UserID(), env.ToUserID, env.Answer)

	case domain.EventICECandidate:
		if len(env.Candidate) == 0 {
			return fmt.Errorf("%w: candidate payload missing", domain.ErrMalformedEvent)
		}
		return r.signals.Candidate(ctx, room, c.UserID(), env.Candidate)

	default:
		// pass-through chat relay
		if len(env.Message) == 0 {
			return fmt.Errorf("%w: message payload missing", domain.ErrMalformedEvent)
		}
		return r.bus.Publish(ctx, r.groupKey(c), domain.NewChatMessageEvent(env.Message))
	}
}

// groupKey is the fanout group the connection itself subscribed to.
func (r *Router) groupKey(c Connection) domain.RoomKey {
	switch c.Kind() {
	case domain.KindInbox:
		return domain.InboxChannel(c.UserID())
	case domain.KindCall:
		return domain.CallRoom(c.RoomName())
	default:
		return domain.ChatRoom(c.RoomName())
	}
}

// reply sends an event back to the requesting connection only.
func (r *Router) reply(c Connection, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.Deliver(data)
}

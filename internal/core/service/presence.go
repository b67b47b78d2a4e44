package service

import (
	"context"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
)

// PresenceService derives who is online in a room from the live
// subscriptions on the bus. Nothing is cached between calls: a missed
// disconnect self-heals on the next snapshot once the registry has reaped
// the connection.
type PresenceService struct {
	bus   port.Bus
	users port.UserRepository
	chats port.ChatRepository
	state port.RoomState
}

func NewPresenceService(bus port.Bus, users port.UserRepository, chats port.ChatRepository, state port.RoomState) *PresenceService {
	return &PresenceService{
		bus:   bus,
		users: users,
		chats: chats,
		state: state,
	}
}

func (s *PresenceService) OnlineParticipants(ctx context.Context, roomName string) ([]domain.UserSummary, error) {
	ids := s.bus.ConnectedUsers(domain.ChatRoom(roomName))
	return s.users.GetUsers(ctx, ids)
}

func (s *PresenceService) BroadcastPresence(ctx context.Context, roomName string) error {
	participants, err := s.OnlineParticipants(ctx, roomName)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, domain.ChatRoom(roomName), domain.NewOnlineParticipantsEvent(participants))
}

// ChatSnapshot returns the room's chat with its active-stream set filled in
// from the call membership state. Streams are a view, not a stored record,
// so the set can never outlive the users actually in the call.
func (s *PresenceService) ChatSnapshot(ctx context.Context, roomName string) (*domain.Chat, error) {
	chat, err := s.chats.GetChatByRoomName(ctx, roomName)
	if err != nil {
		return nil, err
	}
	callers, err := s.state.ActiveCallers(ctx, roomName)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetUsers(ctx, callers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.IsInCall = true
		chat.Streams = append(chat.Streams, domain.Stream{
			ID:       roomName + ":" + string(u.UUID),
			User:     u,
			IsActive: true,
		})
	}
	return chat, nil
}

// BroadcastRoomInfo publishes the active-stream count plus the chat
// snapshot so every connection converges on the same view.
func (s *PresenceService) BroadcastRoomInfo(ctx context.Context, roomName string) error {
	chat, err := s.ChatSnapshot(ctx, roomName)
	if err != nil {
		return err
	}
	event := domain.NewActiveStreamsEvent(chat.ActiveStreamCount(), chat)
	return s.bus.Publish(ctx, domain.ChatRoom(roomName), event)
}

package service

import (
	"context"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
	"github.com/rs/zerolog/log"
)

// CallService runs the call membership state machine. Join and leave are
// conditional transitions on the room's active set, so duplicate or
// retried client events cannot double-count a stream.
type CallService struct {
	state    port.RoomState
	users    port.UserRepository
	bus      port.Bus
	presence *PresenceService
}

func NewCallService(state port.RoomState, users port.UserRepository, bus port.Bus, presence *PresenceService) *CallService {
	return &CallService{
		state:    state,
		users:    users,
		bus:      bus,
		presence: presence,
	}
}

// Join transitions (room, user) to in-call. Already in-call is a no-op on
// the state; the room view is rebroadcast either way so late subscribers
// converge.
func (s *CallService) Join(ctx context.Context, roomName string, userID domain.UserID) error {
	changed, err := s.state.JoinCall(ctx, roomName, userID)
	if err != nil {
		return err
	}
	if changed {
		if err := s.users.SetUserInCall(ctx, userID, true); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to persist in-call flag")
		}
	}
	return s.broadcastRoomView(ctx, roomName)
}

// Leave transitions (room, user) to not-in-call and announces who remains.
func (s *CallService) Leave(ctx context.Context, roomName string, userID domain.UserID) error {
	changed, err := s.state.LeaveCall(ctx, roomName, userID)
	if err != nil {
		return err
	}
	if changed {
		if err := s.users.SetUserInCall(ctx, userID, false); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to persist in-call flag")
		}
	}
	if err := s.broadcastRoomView(ctx, roomName); err != nil {
		return err
	}

	left, err := s.presence.OnlineParticipants(ctx, roomName)
	if err != nil {
		return err
	}
	chat, err := s.presence.ChatSnapshot(ctx, roomName)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, domain.ChatRoom(roomName), domain.NewVideoCallEndedEvent(userID, left, chat))
}

// Start marks the caller's stream active and announces the call to the
// whole room.
func (s *CallService) Start(ctx context.Context, roomName string, userID domain.UserID) error {
	changed, err := s.state.JoinCall(ctx, roomName, userID)
	if err != nil {
		return err
	}
	if changed {
		if err := s.users.SetUserInCall(ctx, userID, true); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to persist in-call flag")
		}
	}
	chat, err := s.presence.ChatSnapshot(ctx, roomName)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, domain.ChatRoom(roomName), domain.NewVideoCallStartedEvent(userID, chat))
}

// End marks the caller's stream inactive and announces the call end with
// the remaining participants.
func (s *CallService) End(ctx context.Context, roomName string, userID domain.UserID) error {
	changed, err := s.state.LeaveCall(ctx, roomName, userID)
	if err != nil {
		return err
	}
	if changed {
		if err := s.users.SetUserInCall(ctx, userID, false); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to persist in-call flag")
		}
	}
	left, err := s.presence.OnlineParticipants(ctx, roomName)
	if err != nil {
		return err
	}
	chat, err := s.presence.ChatSnapshot(ctx, roomName)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, domain.ChatRoom(roomName), domain.NewVideoCallEndedEvent(userID, left, chat))
}

// Connect registers a user on the call channel and announces the in-call
// set. Connecting twice is harmless.
func (s *CallService) Connect(ctx context.Context, roomName string, userID domain.UserID) error {
	if _, err := s.state.JoinCall(ctx, roomName, userID); err != nil {
		return err
	}
	return s.BroadcastUsersList(ctx, roomName)
}

// Disconnect drops a user from the in-call set and announces the rest.
func (s *CallService) Disconnect(ctx context.Context, roomName string, userID domain.UserID) error {
	if _, err := s.state.LeaveCall(ctx, roomName, userID); err != nil {
		return err
	}
	return s.BroadcastUsersList(ctx, roomName)
}

// Reap drops a user from the room's call set when their last room
// connection went away without an explicit leave, so the active-stream set
// never outlives the connections backing it. Not being in the call is a
// no-op with no broadcasts.
func (s *CallService) Reap(ctx context.Context, roomName string, userID domain.UserID) error {
	changed, err := s.state.LeaveCall(ctx, roomName, userID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.users.SetUserInCall(ctx, userID, false); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to persist in-call flag")
	}
	return s.BroadcastUsersList(ctx, roomName)
}

// BroadcastUsersList publishes the room's in-call set on the call channel.
func (s *CallService) BroadcastUsersList(ctx context.Context, roomName string) error {
	callers, err := s.state.ActiveCallers(ctx, roomName)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, domain.CallRoom(roomName), domain.NewUsersListEvent(callers))
}

func (s *CallService) broadcastRoomView(ctx context.Context, roomName string) error {
	if err := s.presence.BroadcastRoomInfo(ctx, roomName); err != nil {
		return err
	}
	return s.presence.BroadcastPresence(ctx, roomName)
}

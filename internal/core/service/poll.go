package service

import (
	"context"
	"errors"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
	"github.com/rs/zerolog/log"
)

// PollService coordinates votes. The voter-set insert on the state store
// is the single atomic gate: whichever concurrent vote wins the insert is
// the one that counts, every other attempt gets ErrAlreadyVoted before any
// mutation.
type PollService struct {
	polls    port.PollRepository
	messages port.MessageRepository
	users    port.UserRepository
	state    port.RoomState
	bus      port.Bus
}

func NewPollService(polls port.PollRepository, messages port.MessageRepository, users port.UserRepository, state port.RoomState, bus port.Bus) *PollService {
	return &PollService{
		polls:    polls,
		messages: messages,
		users:    users,
		state:    state,
		bus:      bus,
	}
}

func (s *PollService) Vote(ctx context.Context, roomName string, pollID domain.PollID, optionID string, userID domain.UserID) (*domain.Poll, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.Option(optionID) == nil {
		return nil, domain.ErrNotFound
	}
	// persisted voters seed the check after a restart of the state store
	if poll.HasVoted(userID) {
		return nil, domain.ErrAlreadyVoted
	}

	ok, err := s.state.AddPollVoter(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyVoted
	}

	voter, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.releaseVoter(ctx, pollID, userID)
			return nil, err
		}
		voter = &domain.UserSummary{UUID: userID}
	}
	// the voter slot is only kept once the vote record exists; a storage
	// failure here releases it so the user can retry
	if err := s.polls.CreatePollVote(ctx, pollID, optionID, *voter); err != nil {
		s.releaseVoter(ctx, pollID, userID)
		return nil, err
	}

	updated, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.GetMessageByPoll(ctx, pollID)
	switch {
	case err == nil:
		if err := s.bus.Publish(ctx, domain.ChatRoom(roomName), domain.NewPollVoteEvent(msg)); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrNotFound):
		// poll not attached to a message; nothing to broadcast
		log.Debug().Str("poll_id", pollID.String()).Msg("Poll has no message, skipping broadcast")
	default:
		return nil, err
	}

	return updated, nil
}

func (s *PollService) releaseVoter(ctx context.Context, pollID domain.PollID, userID domain.UserID) {
	if _, err := s.state.RemovePollVoter(ctx, pollID, userID); err != nil {
		log.Error().Err(err).
			Str("poll_id", pollID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to release voter slot")
	}
}

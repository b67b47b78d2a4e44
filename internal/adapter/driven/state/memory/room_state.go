package memory

import (
	"context"
	"sync"

	"github.com/parleyhq/parley/internal/core/domain"
)

// RoomState is the in-memory, single-process implementation of
// port.RoomState. Each room and each poll gets its own lock so unrelated
// keys never contend.
type RoomState struct {
	mu     sync.RWMutex
	calls  map[string]*set
	voters map[domain.PollID]*set
}

type set struct {
	mu      sync.Mutex
	members map[domain.UserID]struct{}
}

func (s *set) add(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = struct{}{}
	return true
}

func (s *set) remove(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	return true
}

func (s *set) list() []domain.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserID, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	return out
}

func NewRoomState() *RoomState {
	return &RoomState{
		calls:  make(map[string]*set),
		voters: make(map[domain.PollID]*set),
	}
}

func (r *RoomState) callSet(roomName string) *set {
	r.mu.RLock()
	s, ok := r.calls[roomName]
	r.mu.RUnlock()
	if ok {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.calls[roomName]; !ok {
		s = &set{members: make(map[domain.UserID]struct{})}
		r.calls[roomName] = s
	}
	return s
}

func (r *RoomState) voterSet(pollID domain.PollID) *set {
	r.mu.RLock()
	s, ok := r.voters[pollID]
	r.mu.RUnlock()
	if ok {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.voters[pollID]; !ok {
		s = &set{members: make(map[domain.UserID]struct{})}
		r.voters[pollID] = s
	}
	return s
}

func (r *RoomState) JoinCall(ctx context.Context, roomName string, userID domain.UserID) (bool, error) {
	return r.callSet(roomName).add(userID), nil
}

func (r *RoomState) LeaveCall(ctx context.Context, roomName string, userID domain.UserID) (bool, error) {
	return r.callSet(roomName).remove(userID), nil
}

func (r *RoomState) ActiveCallers(ctx context.Context, roomName string) ([]domain.UserID, error) {
	return r.callSet(roomName).list(), nil
}

func (r *RoomState) AddPollVoter(ctx context.Context, pollID domain.PollID, userID domain.UserID) (bool, error) {
	return r.voterSet(pollID).add(userID), nil
}

func (r *RoomState) RemovePollVoter(ctx context.Context, pollID domain.PollID, userID domain.UserID) (bool, error) {
	return r.voterSet(pollID).remove(userID), nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/parleyhq/parley/internal/core/domain"
)

// Store keeps chats, messages, polls and users in process memory. It backs
// the repository ports when no database is configured and doubles as the
// test fixture.
type Store struct {
	mu       sync.RWMutex
	chats    map[domain.ChatID]*domain.Chat
	messages map[domain.MessageID]*domain.Message
	polls    map[domain.PollID]*domain.Poll
	users    map[domain.UserID]domain.UserSummary
}

func NewStore() *Store {
	return &Store{
		chats:    make(map[domain.ChatID]*domain.Chat),
		messages: make(map[domain.MessageID]*domain.Message),
		polls:    make(map[domain.PollID]*domain.Poll),
		users:    make(map[domain.UserID]domain.UserSummary),
	}
}

func (s *Store) CreateChat(ctx context.Context, chat *domain.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *chat
	s.chats[chat.ID] = &cp
	return nil
}

func (s *Store) FindChatsForUser(ctx context.Context, userID domain.UserID, start, count int) ([]domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Chat
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			cp := *c
			cp.LastMessage = s.lastMessageLocked(c.ID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if start >= len(out) {
		return []domain.Chat{}, nil
	}
	end := start + count
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *Store) CountChatsForUser(ctx context.Context, userID domain.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetChatByRoomName(ctx context.Context, roomName string) (*domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.RoomName == roomName {
			cp := *c
			cp.LastMessage = s.lastMessageLocked(c.ID)
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) FindChatBetween(ctx context.Context, a, b domain.UserID) (*domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.HasParticipant(a) && c.HasParticipant(b) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) lastMessageLocked(chatID domain.ChatID) string {
	var last *domain.Message
	for _, m := range s.messages {
		if m.ChatID != chatID {
			continue
		}
		if last == nil || m.Timestamp.After(last.Timestamp) {
			last = m
		}
	}
	if last == nil {
		return ""
	}
	return last.Content
}

func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *Store) LatestForChat(ctx context.Context, chatID domain.ChatID, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) GetMessageByPoll(ctx context.Context, pollID domain.PollID) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.Poll != nil && m.Poll.ID == pollID {
			cp := *m
			if p, ok := s.polls[pollID]; ok {
				pc := *p
				cp.Poll = &pc
			}
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) MarkRead(ctx context.Context, messageID domain.MessageID, reader domain.UserSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return domain.ErrNotFound
	}
	m.MarkReadBy(reader)
	return nil
}

func (s *Store) CreatePoll(ctx context.Context, poll *domain.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *poll
	s.polls[poll.ID] = &cp
	return nil
}

func (s *Store) GetPoll(ctx context.Context, pollID domain.PollID) (*domain.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[pollID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	cp.Options = append([]domain.PollOption(nil), p.Options...)
	cp.Voters = append([]domain.UserSummary(nil), p.Voters...)
	return &cp, nil
}

func (s *Store) CreatePollVote(ctx context.Context, pollID domain.PollID, optionID string, voter domain.UserSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return domain.ErrNotFound
	}
	opt := p.Option(optionID)
	if opt == nil {
		return domain.ErrNotFound
	}
	opt.Votes = append(opt.Votes, domain.PollVote{Voter: voter.UUID})
	p.Voters = append(p.Voters, voter)
	return nil
}

func (s *Store) UpsertUser(ctx context.Context, user domain.UserSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UUID] = user
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID domain.UserID) (*domain.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, userIDs []domain.UserID) ([]domain.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserSummary, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		} else {
			// connection without a stored profile still counts as present
			out = append(out, domain.UserSummary{UUID: id})
		}
	}
	return out, nil
}

func (s *Store) SetUserInCall(ctx context.Context, userID domain.UserID, inCall bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = domain.UserSummary{UUID: userID}
	}
	u.IsInCall = inCall
	s.users[userID] = u
	return nil
}

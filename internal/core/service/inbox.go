package service

import (
	"context"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
)

const DefaultInboxPageSize = 20

// InboxService reads a user's conversations. Replies go only to the asking
// connection; pushes go out on the user's personal inbox channel.
type InboxService struct {
	chats    port.ChatRepository
	bus      port.Bus
	pageSize int
}

func NewInboxService(chats port.ChatRepository, bus port.Bus, pageSize int) *InboxService {
	if pageSize <= 0 {
		pageSize = DefaultInboxPageSize
	}
	return &InboxService{
		chats:    chats,
		bus:      bus,
		pageSize: pageSize,
	}
}

func (s *InboxService) Inboxes(ctx context.Context, userID domain.UserID, start, count int) (domain.InboxesEvent, error) {
	if start < 0 {
		start = 0
	}
	if count <= 0 {
		count = s.pageSize
	}
	chats, err := s.chats.FindChatsForUser(ctx, userID, start, count)
	if err != nil {
		return domain.InboxesEvent{}, err
	}
	total, err := s.chats.CountChatsForUser(ctx, userID)
	if err != nil {
		return domain.InboxesEvent{}, err
	}
	return domain.NewInboxesEvent(domain.EventUserInboxes, chats, total), nil
}

// PushInboxes refreshes a user's inbox list on their personal channel,
// e.g. after someone starts a conversation with them.
func (s *InboxService) PushInboxes(ctx context.Context, userID domain.UserID) error {
	chats, err := s.chats.FindChatsForUser(ctx, userID, 0, s.pageSize)
	if err != nil {
		return err
	}
	total, err := s.chats.CountChatsForUser(ctx, userID)
	if err != nil {
		return err
	}
	event := domain.NewInboxesEvent(domain.EventUserInboxesFromView, chats, total)
	return s.bus.Publish(ctx, domain.InboxChannel(userID), event)
}

package port

import (
	"context"

	"github.com/parleyhq/parley/internal/core/domain"
)

type ChatRepository interface {
	CreateChat(ctx context.Context, chat *domain.Chat) error
	FindChatsForUser(ctx context.Context, userID domain.UserID, start, count int) ([]domain.Chat, error)
	CountChatsForUser(ctx context.Context, userID domain.UserID) (int, error)
	GetChatByRoomName(ctx context.Context, roomName string) (*domain.Chat, error)
	FindChatBetween(ctx context.Context, a, b domain.UserID) (*domain.Chat, error)
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.Message) error
	LatestForChat(ctx context.Context, chatID domain.ChatID, limit int) ([]domain.Message, error)
	GetMessageByPoll(ctx context.Context, pollID domain.PollID) (*domain.Message, error)
	MarkRead(ctx context.Context, messageID domain.MessageID, reader domain.UserSummary) error
}

type PollRepository interface {
	CreatePoll(ctx context.Context, poll *domain.Poll) error
	GetPoll(ctx context.Context, pollID domain.PollID) (*domain.Poll, error)
	CreatePollVote(ctx context.Context, pollID domain.PollID, optionID string, voter domain.UserSummary) error
}

type UserRepository interface {
	UpsertUser(ctx context.Context, user domain.UserSummary) error
	GetUser(ctx context.Context, userID domain.UserID) (*domain.UserSummary, error)
	GetUsers(ctx context.Context, userIDs []domain.UserID) ([]domain.UserSummary, error)
	SetUserInCall(ctx context.Context, userID domain.UserID, inCall bool) error
}

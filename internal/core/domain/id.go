package domain

import (
	"github.com/google/uuid"
)

// UserID is the opaque identity issued by the auth provider. The server
// carries it around but never mints one.
type UserID string

func (id UserID) String() string {
	return string(id)
}

type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New().String())
}

func (id ConnectionID) String() string {
	return string(id)
}

type ChatID string

func NewChatID() ChatID {
	return ChatID(uuid.New().String())
}

func (id ChatID) String() string {
	return string(id)
}

type MessageID string

func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

func (id MessageID) String() string {
	return string(id)
}

type PollID string

func NewPollID() PollID {
	return PollID(uuid.New().String())
}

func (id PollID) String() string {
	return string(id)
}

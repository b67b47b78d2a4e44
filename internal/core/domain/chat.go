package domain

import (
	"time"
)

// Stream is one user's active media publication inside a call room.
// At most one active stream exists per (user, room).
type Stream struct {
	ID       string      `json:"id"`
	User     UserSummary `json:"user"`
	IsActive bool        `json:"is_active"`
}

type Chat struct {
	ID            ChatID        `json:"id"`
	Name          string        `json:"name"`
	Participants  []UserSummary `json:"participants"`
	LastMessage   string        `json:"last_message"`
	RoomName      string        `json:"room_name"`
	RoomGroupName string        `json:"room_group_name"`
	CreatedAt     time.Time     `json:"created_at"`
	Streams       []Stream      `json:"stream"`
}

// NewConversation creates a two-party chat with a fresh room name.
func NewConversation(from, to UserSummary) *Chat {
	id := NewChatID()
	roomName := string(NewChatID())
	return &Chat{
		ID:            id,
		Name:          "conversation",
		Participants:  []UserSummary{from, to},
		RoomName:      roomName,
		RoomGroupName: string(ChatRoom(roomName)),
		CreatedAt:     time.Now().UTC(),
	}
}

func (c *Chat) HasParticipant(userID UserID) bool {
	for _, p := range c.Participants {
		if p.UUID == userID {
			return true
		}
	}
	return false
}

func (c *Chat) ActiveStreamCount() int {
	n := 0
	for _, s := range c.Streams {
		if s.IsActive {
			n++
		}
	}
	return n
}

package domain

import (
	"errors"
	"time"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
	TypeAudio MessageType = "audio"
)

type Mood string

const (
	MoodExcited Mood = "excited"
	MoodLoved   Mood = "loved"
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodThumbsy Mood = "thumbsy"
	MoodNone    Mood = "none"
)

type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url,omitempty"`
}

type GIF struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Slug     string `json:"slug,omitempty"`
	EmbedURL string `json:"embed_url,omitempty"`
	Source   string `json:"source,omitempty"`
	Rating   string `json:"rating,omitempty"`
}

// Message content is immutable once created. Only the delivery status and
// the read-receipt set may change afterwards.
type Message struct {
	ID         MessageID     `json:"id"`
	ChatID     ChatID        `json:"chat"`
	Sender     UserSummary   `json:"sender"`
	Content    string        `json:"content"`
	Mood       Mood          `json:"mood"`
	Type       MessageType   `json:"type"`
	Encryption string        `json:"encryption"`
	Status     MessageStatus `json:"status"`
	ReadBy     []UserSummary `json:"read_by"`
	Files      []File        `json:"files"`
	GIF        *GIF          `json:"gif,omitempty"`
	Poll       *Poll         `json:"poll,omitempty"`
	VoiceRef   string        `json:"voice_message,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	CreatedAt  time.Time     `json:"created_at"`
}

func NewMessage(sender UserSummary, chatID ChatID, content string) (*Message, error) {
	if content == "" {
		return nil, errors.New("message content cannot be empty")
	}
	now := time.Now().UTC()
	return &Message{
		ID:        NewMessageID(),
		ChatID:    chatID,
		Sender:    sender,
		Content:   content,
		Mood:      MoodNone,
		Type:      TypeText,
		Status:    StatusSent,
		Timestamp: now,
		CreatedAt: now,
	}, nil
}

// MarkReadBy records a read receipt and advances the status. Re-reading by
// the same user is a no-op.
func (m *Message) MarkReadBy(user UserSummary) {
	for _, u := range m.ReadBy {
		if u.UUID == user.UUID {
			return
		}
	}
	m.ReadBy = append(m.ReadBy, user)
	m.Status = StatusRead
}

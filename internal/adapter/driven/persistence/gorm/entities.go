package gorm

import (
	"time"
)

type userEntity struct {
	UUID      string `gorm:"primaryKey"`
	Username  string
	IsChatbot bool
	IsOnline  bool
	IsInCall  bool
}

func (userEntity) TableName() string { return "users" }

type chatEntity struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	RoomName      string `gorm:"uniqueIndex"`
	RoomGroupName string
	CreatedAt     time.Time
	Participants  []userEntity `gorm:"many2many:chat_participants"`
}

func (chatEntity) TableName() string { return "chats" }

type messageEntity struct {
	ID         string `gorm:"primaryKey"`
	ChatID     string `gorm:"index"`
	SenderID   string
	Content    string
	Mood       string
	Type       string
	Encryption string
	Status     string
	VoiceRef   string
	PollID     *string `gorm:"index"`
	// small denormalized payloads kept as JSON blobs
	FilesJSON  []byte
	GIFJSON    []byte
	ReadByJSON []byte
	Timestamp  time.Time `gorm:"index"`
	CreatedAt  time.Time
}

func (messageEntity) TableName() string { return "messages" }

type pollEntity struct {
	ID       string `gorm:"primaryKey"`
	Question string
}

func (pollEntity) TableName() string { return "polls" }

type pollOptionEntity struct {
	ID       string `gorm:"primaryKey"`
	PollID   string `gorm:"index"`
	Label    string
	Position int
}

func (pollOptionEntity) TableName() string { return "poll_options" }

type pollVoteEntity struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	PollID   string `gorm:"index"`
	OptionID string `gorm:"index"`
	VoterID  string
}

func (pollVoteEntity) TableName() string { return "poll_votes" }

type pollVoterEntity struct {
	PollID  string `gorm:"primaryKey"`
	VoterID string `gorm:"primaryKey"`
}

func (pollVoterEntity) TableName() string { return "poll_voters" }

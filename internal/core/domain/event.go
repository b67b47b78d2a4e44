package domain

import (
	"encoding/json"
)

// Inbound event types, dispatched on by the router.
const (
	EventGetInboxes          = "get_inboxes"
	EventUserConnected       = "user_connected"
	EventUserDisconnected    = "user_disconnected"
	EventUserJoinedVideoRoom = "user_joined_video_room"
	EventUserLeftVideoRoom   = "user_left_video_room"
	EventVideoCallStarted    = "video_call_started"
	EventLeaveVideoCall      = "leave_video_call"
	EventOffer               = "offer"
	EventAnswer              = "answer"
	EventICECandidate        = "ice_candidate"
)

// Outbound-only event types.
const (
	EventChatMessage         = "chat_message"
	EventPollVote            = "poll_vote"
	EventOnlineParticipants  = "online_participants"
	EventActiveStreams       = "active_streams"
	EventVideoCallEnded      = "video_call_ended"
	EventUserInboxes         = "user_inboxes"
	EventUserInboxesFromView = "user_inboxes_from_view"
	EventUpdateUsersList     = "update_users_list"
)

// Envelope is the inbound frame. Type is required; everything else is
// type-specific and validated by the router.
type Envelope struct {
	Type      string          `json:"type"`
	UserID    UserID          `json:"user_id,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Start     int             `json:"start,omitempty"`
	Count     int             `json:"count,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	ToUserID  UserID          `json:"to_user_id,omitempty"`
}

type ChatMessageEvent struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

func NewChatMessageEvent(message json.RawMessage) ChatMessageEvent {
	return ChatMessageEvent{Type: EventChatMessage, Message: message}
}

type PollVoteEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

func NewPollVoteEvent(msg *Message) PollVoteEvent {
	return PollVoteEvent{Type: EventPollVote, Message: msg}
}

type OnlineParticipantsEvent struct {
	Type         string        `json:"type"`
	Participants []UserSummary `json:"participants"`
}

func NewOnlineParticipantsEvent(participants []UserSummary) OnlineParticipantsEvent {
	if participants == nil {
		participants = []UserSummary{}
	}
	return OnlineParticipantsEvent{Type: EventOnlineParticipants, Participants: participants}
}

type ActiveStreamsEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Chat  *Chat  `json:"chat"`
}

func NewActiveStreamsEvent(count int, chat *Chat) ActiveStreamsEvent {
	return ActiveStreamsEvent{Type: EventActiveStreams, Count: count, Chat: chat}
}

type VideoCallStartedEvent struct {
	Type   string `json:"type"`
	UserID UserID `json:"user_id"`
	Chat   *Chat  `json:"chat"`
}

func NewVideoCallStartedEvent(userID UserID, chat *Chat) VideoCallStartedEvent {
	return VideoCallStartedEvent{Type: EventVideoCallStarted, UserID: userID, Chat: chat}
}

type VideoCallEndedEvent struct {
	Type             string        `json:"type"`
	UserID           UserID        `json:"user_id"`
	ParticipantsLeft []UserSummary `json:"participants_left"`
	Chat             *Chat         `json:"chat"`
}

func NewVideoCallEndedEvent(userID UserID, left []UserSummary, chat *Chat) VideoCallEndedEvent {
	if left == nil {
		left = []UserSummary{}
	}
	return VideoCallEndedEvent{Type: EventVideoCallEnded, UserID: userID, ParticipantsLeft: left, Chat: chat}
}

type InboxesEvent struct {
	Type       string `json:"type"`
	Data       []Chat `json:"data"`
	TotalCount int    `json:"total_count"`
}

func NewInboxesEvent(eventType string, chats []Chat, total int) InboxesEvent {
	if chats == nil {
		chats = []Chat{}
	}
	return InboxesEvent{Type: eventType, Data: chats, TotalCount: total}
}

type UsersListEvent struct {
	Type  string   `json:"type"`
	Users []UserID `json:"users"`
}

func NewUsersListEvent(users []UserID) UsersListEvent {
	if users == nil {
		users = []UserID{}
	}
	return UsersListEvent{Type: EventUpdateUsersList, Users: users}
}

type OfferEvent struct {
	Type       string          `json:"type"`
	Offer      json.RawMessage `json:"offer"`
	FromUserID UserID          `json:"from_user_id"`
}

type AnswerEvent struct {
	Type       string          `json:"type"`
	Answer     json.RawMessage `json:"answer"`
	FromUserID UserID          `json:"from_user_id"`
	ToUserID   UserID          `json:"to_user_id"`
}

type ICECandidateEvent struct {
	Type       string          `json:"type"`
	Candidate  json.RawMessage `json:"candidate"`
	FromUserID UserID          `json:"from_user_id"`
}

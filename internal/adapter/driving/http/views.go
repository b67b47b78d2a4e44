package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// Thin request/response wrappers over the core. Everything interesting
// happens in the services; these just authenticate, decode and reply.

const messagePageSize = 20

type startConversationRequest struct {
	ToUser           string `json:"to_user"`
	ToUserUsername   string `json:"to_user_username"`
	FromUserUsername string `json:"from_user_username"`
}

func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToUser == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	from := domain.UserSummary{UUID: identity.UserID, Username: req.FromUserUsername}
	to := domain.UserSummary{UUID: domain.UserID(req.ToUser), Username: req.ToUserUsername}
	if err := h.Users.UpsertUser(ctx, from); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Users.UpsertUser(ctx, to); err != nil {
		h.respondError(w, err)
		return
	}

	chat, err := h.Chats.FindChatBetween(ctx, from.UUID, to.UUID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		chat = domain.NewConversation(from, to)
		if err := h.Chats.CreateChat(ctx, chat); err != nil {
			h.respondError(w, err)
			return
		}
	default:
		h.respondError(w, err)
		return
	}

	// both parties get a fresh inbox list on their personal channel
	for _, userID := range []domain.UserID{from.UUID, to.UUID} {
		if err := h.Inboxes.PushInboxes(ctx, userID); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to push inboxes")
		}
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *Handler) LoadMessages(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	ctx := r.Context()
	roomName := chi.URLParam(r, "room")
	chat, err := h.Chats.GetChatByRoomName(ctx, roomName)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !chat.HasParticipant(identity.UserID) {
		http.Error(w, "you do not have access to this chat", http.StatusForbidden)
		return
	}

	messages, err := h.Messages.LatestForChat(ctx, chat.ID, messagePageSize)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	RoomName   string        `json:"room_name"`
	Message    string        `json:"message"`
	Mood       string        `json:"mood"`
	Encryption string        `json:"encryption"`
	Files      []domain.File `json:"files"`
	GIF        *domain.GIF   `json:"gif"`
	VoiceRef   string        `json:"voice_message"`
	Poll       *struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
	} `json:"poll"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomName == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	chat, err := h.Chats.GetChatByRoomName(ctx, req.RoomName)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sender, err := h.Users.GetUser(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.respondError(w, err)
			return
		}
		sender = &domain.UserSummary{UUID: identity.UserID}
	}

	msg, err := domain.NewMessage(*sender, chat.ID, req.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Mood != "" {
		msg.Mood = domain.Mood(req.Mood)
	}
	msg.Encryption = req.Encryption
	msg.Files = req.Files
	msg.GIF = req.GIF
	msg.VoiceRef = req.VoiceRef

	if req.Poll != nil {
		poll := domain.NewPoll(req.Poll.Question, req.Poll.Options)
		if err := h.PollRepo.CreatePoll(ctx, poll); err != nil {
			h.respondError(w, err)
			return
		}
		msg.Poll = poll
	}

	if err := h.Messages.CreateMessage(ctx, msg); err != nil {
		h.respondError(w, err)
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Bus.Publish(ctx, domain.ChatRoom(chat.RoomName), domain.NewChatMessageEvent(payload)); err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	ctx := r.Context()
	messageID := domain.MessageID(chi.URLParam(r, "message"))
	reader, err := h.Users.GetUser(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.respondError(w, err)
			return
		}
		reader = &domain.UserSummary{UUID: identity.UserID}
	}

	if err := h.Messages.MarkRead(ctx, messageID, *reader); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type votePollRequest struct {
	RoomName string `json:"room_name"`
	Poll     string `json:"poll"`
	Option   string `json:"option"`
}

func (h *Handler) VotePoll(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req votePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Poll == "" || req.Option == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	poll, err := h.Polls.Vote(r.Context(), req.RoomName, domain.PollID(req.Poll), req.Option, identity.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (h *Handler) authenticate(r *http.Request) (domain.Identity, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return h.Verifier.Verify(token)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrExpiredToken):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrAlreadyVoted):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrStorageUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("Request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

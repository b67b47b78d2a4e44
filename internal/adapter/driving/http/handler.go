package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/parleyhq/parley/internal/core/port"
	"github.com/parleyhq/parley/internal/core/service"
)

type Handler struct {
	Bus      port.Bus
	Router   *service.Router
	Presence *service.PresenceService
	Calls    *service.CallService
	Polls    *service.PollService
	Inboxes  *service.InboxService
	Verifier port.TokenVerifier

	Chats    port.ChatRepository
	Messages port.MessageRepository
	PollRepo port.PollRepository
	Users    port.UserRepository
}

func NewHandler(bus port.Bus, router *service.Router, presence *service.PresenceService, calls *service.CallService, polls *service.PollService, inboxes *service.InboxService, verifier port.TokenVerifier, chats port.ChatRepository, messages port.MessageRepository, pollRepo port.PollRepository, users port.UserRepository) *Handler {
	return &Handler{
		Bus:      bus,
		Router:   router,
		Presence: presence,
		Calls:    calls,
		Polls:    polls,
		Inboxes:  inboxes,
		Verifier: verifier,
		Chats:    chats,
		Messages: messages,
		PollRepo: pollRepo,
		Users:    users,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws/chat/{room}", h.ServeChatWS)
	r.Get("/ws/inbox/{user}", h.ServeInboxWS)
	r.Get("/ws/call/{room}", h.ServeCallWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/conversations", h.StartConversation)
		r.Get("/conversations/{room}/messages", h.LoadMessages)
		r.Post("/messages", h.SendMessage)
		r.Post("/messages/{message}/read", h.MarkMessageRead)
		r.Post("/polls/vote", h.VotePoll)
	})

	return r
}

package service

import (
	"context"
	"encoding/json"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
)

// SignalService relays WebRTC negotiation payloads between call peers. It
// is a dumb pipe: payloads are opaque bytes, never inspected. If the
// target is gone the message is simply undelivered.
type SignalService struct {
	bus port.Bus
}

func NewSignalService(bus port.Bus) *SignalService {
	return &SignalService{bus: bus}
}

// Offer goes to the whole call room tagged with the sender; each peer
// self-selects.
func (s *SignalService) Offer(ctx context.Context, roomName string, from domain.UserID, payload json.RawMessage) error {
	return s.bus.Publish(ctx, domain.CallRoom(roomName), domain.OfferEvent{
		Type:       domain.EventOffer,
		Offer:      payload,
		FromUserID: from,
	})
}

// Answer is addressed to a single peer and delivered only to that user's
// connections.
func (s *SignalService) Answer(ctx context.Context, roomName string, from, to domain.UserID, payload json.RawMessage) error {
	return s.bus.SendToUser(ctx, domain.CallRoom(roomName), to, domain.AnswerEvent{
		Type:       domain.EventAnswer,
		Answer:     payload,
		FromUserID: from,
		ToUserID:   to,
	})
}

func (s *SignalService) Candidate(ctx context.Context, roomName string, from domain.UserID, payload json.RawMessage) error {
	return s.bus.Publish(ctx, domain.CallRoom(roomName), domain.ICECandidateEvent{
		Type:       domain.EventICECandidate,
		Candidate:  payload,
		FromUserID: from,
	})
}

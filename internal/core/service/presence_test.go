package service

import (
	"context"
	"errors"
	"testing"

	memstore "github.com/parleyhq/parley/internal/adapter/driven/persistence/memory"
	memstate "github.com/parleyhq/parley/internal/adapter/driven/state/memory"
	"github.com/parleyhq/parley/internal/core/domain"
)

func newPresenceFixture(t *testing.T) (*PresenceService, *memstore.Store, *memstate.RoomState, *fakeBus) {
	t.Helper()
	ctx := context.Background()

	store := memstore.NewStore()
	state := memstate.NewRoomState()
	bus := newFakeBus()

	alice := domain.UserSummary{UUID: "alice", Username: "alice"}
	bob := domain.UserSummary{UUID: "bob", Username: "bob"}
	for _, u := range []domain.UserSummary{alice, bob} {
		if err := store.UpsertUser(ctx, u); err != nil {
			t.Fatalf("UpsertUser() unexpected error: %v", err)
		}
	}

	chat := &domain.Chat{
		ID:           domain.NewChatID(),
		Name:         "conversation",
		Participants: []domain.UserSummary{alice, bob},
		RoomName:     "r1",
	}
	if err := store.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat() unexpected error: %v", err)
	}

	return NewPresenceService(bus, store, store, state), store, state, bus
}

func TestPresenceService_OnlineParticipantsFollowLiveConnections(t *testing.T) {
	ctx := context.Background()
	svc, _, _, bus := newPresenceFixture(t)

	participants, err := svc.OnlineParticipants(ctx, "r1")
	if err != nil {
		t.Fatalf("OnlineParticipants() unexpected error: %v", err)
	}
	if len(participants) != 0 {
		t.Errorf("no connections should mean no one online, got %+v", participants)
	}

	bus.setConnected(domain.ChatRoom("r1"), "alice")
	participants, err = svc.OnlineParticipants(ctx, "r1")
	if err != nil {
		t.Fatalf("OnlineParticipants() unexpected error: %v", err)
	}
	if len(participants) != 1 || participants[0].Username != "alice" {
		t.Errorf("OnlineParticipants() = %+v, want alice only", participants)
	}
}

func TestPresenceService_ChatSnapshotDerivesStreams(t *testing.T) {
	ctx := context.Background()
	svc, _, state, _ := newPresenceFixture(t)

	if _, err := state.JoinCall(ctx, "r1", "alice"); err != nil {
		t.Fatalf("JoinCall() unexpected error: %v", err)
	}

	chat, err := svc.ChatSnapshot(ctx, "r1")
	if err != nil {
		t.Fatalf("ChatSnapshot() unexpected error: %v", err)
	}
	if got := chat.ActiveStreamCount(); got != 1 {
		t.Fatalf("ActiveStreamCount() = %d, want 1", got)
	}
	stream := chat.Streams[0]
	if stream.User.UUID != "alice" || !stream.User.IsInCall {
		t.Errorf("stream user = %+v, want alice marked in-call", stream.User)
	}
	if !stream.IsActive {
		t.Error("derived stream should be active")
	}
}

func TestPresenceService_ChatSnapshotUnknownRoom(t *testing.T) {
	svc, _, _, _ := newPresenceFixture(t)

	if _, err := svc.ChatSnapshot(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ChatSnapshot() error = %v, want ErrNotFound", err)
	}
}

func TestPresenceService_BroadcastPresencePublishesToChatRoom(t *testing.T) {
	ctx := context.Background()
	svc, _, _, bus := newPresenceFixture(t)
	bus.setConnected(domain.ChatRoom("r1"), "alice", "bob")

	if err := svc.BroadcastPresence(ctx, "r1"); err != nil {
		t.Fatalf("BroadcastPresence() unexpected error: %v", err)
	}

	events := bus.events()
	if len(events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(events))
	}
	if events[0].key != domain.ChatRoom("r1") {
		t.Errorf("published on %q, want %q", events[0].key, domain.ChatRoom("r1"))
	}
	ev, ok := events[0].event.(domain.OnlineParticipantsEvent)
	if !ok {
		t.Fatalf("published %T, want OnlineParticipantsEvent", events[0].event)
	}
	if len(ev.Participants) != 2 {
		t.Errorf("participants = %d, want 2", len(ev.Participants))
	}
}

package service

import (
	"context"
	"testing"
	"time"

	memstore "github.com/parleyhq/parley/internal/adapter/driven/persistence/memory"
	"github.com/parleyhq/parley/internal/core/domain"
)

func seedChats(t *testing.T, store *memstore.Store, userID domain.UserID, names ...string) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC()
	for i, name := range names {
		chat := &domain.Chat{
			ID:   domain.NewChatID(),
			Name: name,
			Participants: []domain.UserSummary{
				{UUID: userID},
				{UUID: domain.UserID("peer-" + name)},
			},
			RoomName:  "room-" + name,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateChat(ctx, chat); err != nil {
			t.Fatalf("CreateChat(%s) unexpected error: %v", name, err)
		}
	}
}

func TestInboxService_InboxesPaginates(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	svc := NewInboxService(store, newFakeBus(), 20)
	seedChats(t, store, "alice", "a", "b", "c")

	tests := []struct {
		name      string
		start     int
		count     int
		wantLen   int
		wantFirst string
	}{
		{"first page", 0, 2, 2, "c"}, // newest first
		{"second page", 2, 2, 1, "a"},
		{"past the end", 5, 2, 0, ""},
		{"negative start clamps", -3, 2, 2, "c"},
		{"zero count uses page size", 0, 0, 3, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := svc.Inboxes(ctx, "alice", tt.start, tt.count)
			if err != nil {
				t.Fatalf("Inboxes() unexpected error: %v", err)
			}
			if ev.Type != domain.EventUserInboxes {
				t.Errorf("event type = %q, want %q", ev.Type, domain.EventUserInboxes)
			}
			if ev.TotalCount != 3 {
				t.Errorf("TotalCount = %d, want 3", ev.TotalCount)
			}
			if len(ev.Data) != tt.wantLen {
				t.Fatalf("got %d chats, want %d", len(ev.Data), tt.wantLen)
			}
			if tt.wantLen > 0 && ev.Data[0].Name != tt.wantFirst {
				t.Errorf("first chat = %q, want %q", ev.Data[0].Name, tt.wantFirst)
			}
		})
	}
}

func TestInboxService_InboxesOnlyOwnChats(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	svc := NewInboxService(store, newFakeBus(), 20)
	seedChats(t, store, "alice", "a")
	seedChats(t, store, "bob", "b")

	ev, err := svc.Inboxes(ctx, "alice", 0, 10)
	if err != nil {
		t.Fatalf("Inboxes() unexpected error: %v", err)
	}
	if len(ev.Data) != 1 || ev.Data[0].Name != "a" {
		t.Errorf("Inboxes() = %+v, want only chat a", ev.Data)
	}
	if ev.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", ev.TotalCount)
	}
}

func TestInboxService_PushInboxesTargetsPersonalChannel(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	bus := newFakeBus()
	svc := NewInboxService(store, bus, 20)
	seedChats(t, store, "alice", "a", "b")

	if err := svc.PushInboxes(ctx, "alice"); err != nil {
		t.Fatalf("PushInboxes() unexpected error: %v", err)
	}

	events := bus.events()
	if len(events) != 1 {
		t.Fatalf("expected 1 push, got %d", len(events))
	}
	if events[0].key != domain.InboxChannel("alice") {
		t.Errorf("pushed on %q, want %q", events[0].key, domain.InboxChannel("alice"))
	}
	ev, ok := events[0].event.(domain.InboxesEvent)
	if !ok {
		t.Fatalf("pushed %T, want InboxesEvent", events[0].event)
	}
	if ev.Type != domain.EventUserInboxesFromView {
		t.Errorf("event type = %q, want %q", ev.Type, domain.EventUserInboxesFromView)
	}
	if len(ev.Data) != 2 || ev.TotalCount != 2 {
		t.Errorf("pushed %d chats with total %d, want 2 and 2", len(ev.Data), ev.TotalCount)
	}
}

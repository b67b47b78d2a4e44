package service

import (
	"context"
	"errors"
	"testing"

	memstore "github.com/parleyhq/parley/internal/adapter/driven/persistence/memory"
	memstate "github.com/parleyhq/parley/internal/adapter/driven/state/memory"
	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
)

// flakyPollRepo fails a configurable number of vote inserts before
// delegating to the real repository.
type flakyPollRepo struct {
	port.PollRepository
	failVotes int
}

func (r *flakyPollRepo) CreatePollVote(ctx context.Context, pollID domain.PollID, optionID string, voter domain.UserSummary) error {
	if r.failVotes > 0 {
		r.failVotes--
		return domain.ErrStorageUnavailable
	}
	return r.PollRepository.CreatePollVote(ctx, pollID, optionID, voter)
}

func newPollFixture(t *testing.T) (*PollService, *memstore.Store, *fakeBus, *domain.Poll) {
	t.Helper()
	ctx := context.Background()

	store := memstore.NewStore()
	state := memstate.NewRoomState()
	bus := newFakeBus()

	alice := domain.UserSummary{UUID: "alice", Username: "alice"}
	if err := store.UpsertUser(ctx, alice); err != nil {
		t.Fatalf("UpsertUser() unexpected error: %v", err)
	}

	chat := &domain.Chat{
		ID:           domain.NewChatID(),
		Name:         "conversation",
		Participants: []domain.UserSummary{alice, {UUID: "bob", Username: "bob"}},
		RoomName:     "r1",
	}
	if err := store.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat() unexpected error: %v", err)
	}

	poll := domain.NewPoll("tea or coffee?", []string{"tea", "coffee"})
	if err := store.CreatePoll(ctx, poll); err != nil {
		t.Fatalf("CreatePoll() unexpected error: %v", err)
	}

	msg, err := domain.NewMessage(alice, chat.ID, "vote now")
	if err != nil {
		t.Fatalf("NewMessage() unexpected error: %v", err)
	}
	msg.Poll = poll
	if err := store.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() unexpected error: %v", err)
	}

	return NewPollService(store, store, store, state, bus), store, bus, poll
}

func TestPollService_VoteCountsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	svc, _, bus, poll := newPollFixture(t)

	updated, err := svc.Vote(ctx, "r1", poll.ID, poll.Options[0].ID, "alice")
	if err != nil {
		t.Fatalf("Vote() unexpected error: %v", err)
	}

	if got := updated.Option(poll.Options[0].ID).VotesCount(); got != 1 {
		t.Errorf("voted option has %d votes, want 1", got)
	}
	if got := updated.TotalVotes(); got != 1 {
		t.Errorf("TotalVotes() = %d, want 1", got)
	}
	if !updated.HasVoted("alice") {
		t.Error("voter should be recorded on the poll")
	}

	var broadcast *domain.PollVoteEvent
	for _, rec := range bus.events() {
		if ev, ok := rec.event.(domain.PollVoteEvent); ok {
			if rec.key != domain.ChatRoom("r1") {
				t.Errorf("poll_vote published on %q, want %q", rec.key, domain.ChatRoom("r1"))
			}
			broadcast = &ev
		}
	}
	if broadcast == nil {
		t.Fatal("expected a poll_vote broadcast on the chat room")
	}
	if broadcast.Message == nil || broadcast.Message.Poll == nil {
		t.Fatal("poll_vote broadcast should carry the message with its poll")
	}
	if got := broadcast.Message.Poll.TotalVotes(); got != 1 {
		t.Errorf("broadcast poll has %d votes, want 1", got)
	}
}

func TestPollService_SecondVoteRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _, poll := newPollFixture(t)

	if _, err := svc.Vote(ctx, "r1", poll.ID, poll.Options[0].ID, "alice"); err != nil {
		t.Fatalf("first Vote() unexpected error: %v", err)
	}

	// same option and a different option are both rejected
	for _, optionID := range []string{poll.Options[0].ID, poll.Options[1].ID} {
		if _, err := svc.Vote(ctx, "r1", poll.ID, optionID, "alice"); !errors.Is(err, domain.ErrAlreadyVoted) {
			t.Errorf("Vote(option %s) error = %v, want ErrAlreadyVoted", optionID, err)
		}
	}

	updated, err := svc.Vote(ctx, "r1", poll.ID, poll.Options[1].ID, "bob")
	if err != nil {
		t.Fatalf("Vote() by another user unexpected error: %v", err)
	}
	if got := updated.TotalVotes(); got != 2 {
		t.Errorf("TotalVotes() = %d, want 2", got)
	}
}

func TestPollService_VoteValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, poll := newPollFixture(t)

	tests := []struct {
		name     string
		pollID   domain.PollID
		optionID string
		wantErr  error
	}{
		{"unknown poll", domain.NewPollID(), poll.Options[0].ID, domain.ErrNotFound},
		{"unknown option", poll.ID, "nope", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Vote(ctx, "r1", tt.pollID, tt.optionID, "alice"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Vote() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPollService_StorageFailureReleasesVoterSlot(t *testing.T) {
	ctx := context.Background()

	store := memstore.NewStore()
	state := memstate.NewRoomState()
	bus := newFakeBus()

	if err := store.UpsertUser(ctx, domain.UserSummary{UUID: "alice", Username: "alice"}); err != nil {
		t.Fatalf("UpsertUser() unexpected error: %v", err)
	}
	poll := domain.NewPoll("retry?", []string{"yes", "no"})
	if err := store.CreatePoll(ctx, poll); err != nil {
		t.Fatalf("CreatePoll() unexpected error: %v", err)
	}

	repo := &flakyPollRepo{PollRepository: store, failVotes: 1}
	svc := NewPollService(repo, store, store, state, bus)

	if _, err := svc.Vote(ctx, "r1", poll.ID, poll.Options[0].ID, "alice"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Vote() error = %v, want ErrStorageUnavailable", err)
	}

	// the failed attempt recorded nothing, so the retry must go through
	updated, err := svc.Vote(ctx, "r1", poll.ID, poll.Options[0].ID, "alice")
	if err != nil {
		t.Fatalf("retry Vote() unexpected error: %v", err)
	}
	if got := updated.TotalVotes(); got != 1 {
		t.Errorf("TotalVotes() after retry = %d, want 1", got)
	}
	if !updated.HasVoted("alice") {
		t.Error("voter should be recorded after the retry")
	}

	// and the slot is consumed again: a third attempt is a duplicate
	if _, err := svc.Vote(ctx, "r1", poll.ID, poll.Options[0].ID, "alice"); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Errorf("third Vote() error = %v, want ErrAlreadyVoted", err)
	}
}

func TestPollService_VoteWithoutMessageSkipsBroadcast(t *testing.T) {
	ctx := context.Background()
	svc, store, bus, _ := newPollFixture(t)

	detached := domain.NewPoll("standalone?", []string{"yes"})
	if err := store.CreatePoll(ctx, detached); err != nil {
		t.Fatalf("CreatePoll() unexpected error: %v", err)
	}

	updated, err := svc.Vote(ctx, "r1", detached.ID, detached.Options[0].ID, "alice")
	if err != nil {
		t.Fatalf("Vote() unexpected error: %v", err)
	}
	if got := updated.TotalVotes(); got != 1 {
		t.Errorf("TotalVotes() = %d, want 1", got)
	}
	for _, rec := range bus.events() {
		if _, ok := rec.event.(domain.PollVoteEvent); ok {
			t.Error("poll without a message should not broadcast")
		}
	}
}

package domain

import (
	"encoding/json"
	"testing"
)

func TestPoll_MarshalDerivesCounts(t *testing.T) {
	poll := NewPoll("tea or coffee?", []string{"tea", "coffee"})
	poll.Options[0].Votes = []PollVote{{Voter: "alice"}, {Voter: "bob"}}
	poll.Options[1].Votes = []PollVote{{Voter: "carol"}}
	poll.Voters = []UserSummary{{UUID: "alice"}, {UUID: "bob"}, {UUID: "carol"}}

	data, err := json.Marshal(poll)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}

	var got struct {
		Question string `json:"question"`
		Options  []struct {
			Option     string `json:"option"`
			VotesCount int    `json:"votes_count"`
		} `json:"options"`
		TotalVotesCount int `json:"total_votes_count"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}

	if got.Question != "tea or coffee?" {
		t.Errorf("question = %q, want %q", got.Question, "tea or coffee?")
	}
	if got.TotalVotesCount != 3 {
		t.Errorf("total_votes_count = %d, want 3", got.TotalVotesCount)
	}
	if len(got.Options) != 2 {
		t.Fatalf("got %d options, want 2", len(got.Options))
	}
	if got.Options[0].Option != "tea" || got.Options[0].VotesCount != 2 {
		t.Errorf("first option = %+v, want tea with 2 votes", got.Options[0])
	}
	if got.Options[1].Option != "coffee" || got.Options[1].VotesCount != 1 {
		t.Errorf("second option = %+v, want coffee with 1 vote", got.Options[1])
	}
}

func TestPoll_MarshalEmptyPoll(t *testing.T) {
	poll := Poll{ID: NewPollID(), Question: "anyone?"}

	data, err := json.Marshal(poll)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if string(got["options"]) != "[]" {
		t.Errorf("options = %s, want []", got["options"])
	}
	if string(got["voters"]) != "[]" {
		t.Errorf("voters = %s, want []", got["voters"])
	}
	if string(got["total_votes_count"]) != "0" {
		t.Errorf("total_votes_count = %s, want 0", got["total_votes_count"])
	}
}

func TestPoll_HasVotedAndOptionLookup(t *testing.T) {
	poll := NewPoll("q", []string{"a", "b"})
	poll.Voters = []UserSummary{{UUID: "alice"}}

	if !poll.HasVoted("alice") {
		t.Error("HasVoted(alice) = false, want true")
	}
	if poll.HasVoted("bob") {
		t.Error("HasVoted(bob) = true, want false")
	}
	if poll.Option(poll.Options[1].ID) == nil {
		t.Error("Option() should find an existing option")
	}
	if poll.Option("nope") != nil {
		t.Error("Option() should return nil for an unknown id")
	}
}

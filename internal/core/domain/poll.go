package domain

import (
	"encoding/json"
)

type PollVote struct {
	Voter UserID `json:"voter"`
}

type PollOption struct {
	ID    string
	Label string
	Votes []PollVote
}

func (o PollOption) VotesCount() int {
	return len(o.Votes)
}

// Vote counts are derived from the vote records at read time, never kept as
// separate counters.
func (o PollOption) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string `json:"id"`
		Option     string `json:"option"`
		VotesCount int    `json:"votes_count"`
	}{
		ID:         o.ID,
		Option:     o.Label,
		VotesCount: o.VotesCount(),
	})
}

type Poll struct {
	ID       PollID
	Question string
	Options  []PollOption
	Voters   []UserSummary
}

func NewPoll(question string, options []string) *Poll {
	p := &Poll{
		ID:       NewPollID(),
		Question: question,
	}
	for _, label := range options {
		p.Options = append(p.Options, PollOption{
			ID:    string(NewPollID()),
			Label: label,
		})
	}
	return p
}

func (p *Poll) TotalVotes() int {
	n := 0
	for _, o := range p.Options {
		n += o.VotesCount()
	}
	return n
}

func (p *Poll) Option(optionID string) *PollOption {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i]
		}
	}
	return nil
}

func (p *Poll) HasVoted(userID UserID) bool {
	for _, v := range p.Voters {
		if v.UUID == userID {
			return true
		}
	}
	return false
}

func (p Poll) MarshalJSON() ([]byte, error) {
	voters := p.Voters
	if voters == nil {
		voters = []UserSummary{}
	}
	options := p.Options
	if options == nil {
		options = []PollOption{}
	}
	return json.Marshal(struct {
		ID              PollID        `json:"id"`
		Question        string        `json:"question"`
		Options         []PollOption  `json:"options"`
		TotalVotesCount int           `json:"total_votes_count"`
		Voters          []UserSummary `json:"voters"`
	}{
		ID:              p.ID,
		Question:        p.Question,
		Options:         options,
		TotalVotesCount: p.TotalVotes(),
		Voters:          voters,
	})
}

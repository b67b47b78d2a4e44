package port

import (
	"context"

	"github.com/parleyhq/parley/internal/core/domain"
)

// RoomState holds the genuinely shared mutable state: per-room call
// membership and per-poll voter sets. Mutations are conditional writes
// whose boolean result reports whether the set actually changed, which is
// what makes call transitions idempotent and poll votes exactly-once.
type RoomState interface {
	JoinCall(ctx context.Context, roomName string, userID domain.UserID) (bool, error)
	LeaveCall(ctx context.Context, roomName string, userID domain.UserID) (bool, error)
	ActiveCallers(ctx context.Context, roomName string) ([]domain.UserID, error)

	AddPollVoter(ctx context.Context, pollID domain.PollID, userID domain.UserID) (bool, error)

	// RemovePollVoter releases a voter slot won by AddPollVoter whose vote
	// could not be recorded, so the user can retry.
	RemovePollVoter(ctx context.Context, pollID domain.PollID, userID domain.UserID) (bool, error)
}

package redis

import (
	"context"
	"fmt"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// RoomState keeps call membership and poll voter sets in redis so that
// several processes handling the same room agree on them. SADD/SREM report
// how many members actually changed, which is exactly the conditional
// write the state machine and the vote coordinator need.
type RoomState struct {
	client *redis.Client
}

func NewRoomState(client *redis.Client) *RoomState {
	return &RoomState{client: client}
}

func callKey(roomName string) string {
	return "call:" + roomName
}

func votersKey(pollID domain.PollID) string {
	return "pollvoters:" + string(pollID)
}

func (r *RoomState) JoinCall(ctx context.Context, roomName string, userID domain.UserID) (bool, error) {
	added, err := r.client.SAdd(ctx, callKey(roomName), string(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("join call: %w", err)
	}
	return added > 0, nil
}

func (r *RoomState) LeaveCall(ctx context.Context, roomName string, userID domain.UserID) (bool, error) {
	removed, err := r.client.SRem(ctx, callKey(roomName), string(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("leave call: %w", err)
	}
	return removed > 0, nil
}

func (r *RoomState) ActiveCallers(ctx context.Context, roomName string) ([]domain.UserID, error) {
	members, err := r.client.SMembers(ctx, callKey(roomName)).Result()
	if err != nil {
		return nil, fmt.Errorf("active callers: %w", err)
	}
	users := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		users = append(users, domain.UserID(m))
	}
	return users, nil
}

func (r *RoomState) AddPollVoter(ctx context.Context, pollID domain.PollID, userID domain.UserID) (bool, error) {
	added, err := r.client.SAdd(ctx, votersKey(pollID), string(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("add poll voter: %w", err)
	}
	return added > 0, nil
}

func (r *RoomState) RemovePollVoter(ctx context.Context, pollID domain.PollID, userID domain.UserID) (bool, error) {
	removed, err := r.client.SRem(ctx, votersKey(pollID), string(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("remove poll voter: %w", err)
	}
	return removed > 0, nil
}

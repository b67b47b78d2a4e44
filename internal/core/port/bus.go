package port

import (
	"context"

	"github.com/parleyhq/parley/internal/core/domain"
)

// Bus is the room fanout substrate. Publish delivers the event to every
// client subscribed to the key at the moment of the call, publisher
// included, in submission order per key. Delivery to a client that has
// concurrently gone away is dropped silently.
type Bus interface {
	Subscribe(key domain.RoomKey, c Client)
	Unsubscribe(key domain.RoomKey, c Client)
	Publish(ctx context.Context, key domain.RoomKey, event any) error

	// SendToUser delivers only to the given user's connections on the key.
	SendToUser(ctx context.Context, key domain.RoomKey, userID domain.UserID, event any) error

	// ConnectedUsers returns the distinct user ids with at least one live
	// subscription on the key.
	ConnectedUsers(key domain.RoomKey) []domain.UserID
}

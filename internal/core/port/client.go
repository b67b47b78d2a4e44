package port

import "github.com/parleyhq/parley/internal/core/domain"

// Client is one live connection as seen by the bus. Deliver takes an
// already-encoded frame so that a publish encodes once for all subscribers.
type Client interface {
	ID() domain.ConnectionID
	UserID() domain.UserID
	Kind() domain.ConnectionKind
	Deliver(data []byte) error
	Close() error
}

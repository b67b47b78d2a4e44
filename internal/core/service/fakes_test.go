package service

import (
	"context"
	"sync"

	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/parleyhq/parley/internal/core/port"
)

// fakeBus records everything published so tests can assert on fanout
// without sockets.
type fakeBus struct {
	mu        sync.Mutex
	published []busRecord
	direct    []directRecord
	connected map[domain.RoomKey][]domain.UserID
}

type busRecord struct {
	key   domain.RoomKey
	event any
}

type directRecord struct {
	key    domain.RoomKey
	userID domain.UserID
	event  any
}

func newFakeBus() *fakeBus {
	return &fakeBus{connected: make(map[domain.RoomKey][]domain.UserID)}
}

func (b *fakeBus) Subscribe(key domain.RoomKey, c port.Client) {}

func (b *fakeBus) Unsubscribe(key domain.RoomKey, c port.Client) {}

func (b *fakeBus) Publish(ctx context.Context, key domain.RoomKey, event any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, busRecord{key: key, event: event})
	return nil
}

func (b *fakeBus) SendToUser(ctx context.Context, key domain.RoomKey, userID domain.UserID, event any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct = append(b.direct, directRecord{key: key, userID: userID, event: event})
	return nil
}

func (b *fakeBus) ConnectedUsers(key domain.RoomKey) []domain.UserID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected[key]
}

func (b *fakeBus) setConnected(key domain.RoomKey, users ...domain.UserID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected[key] = users
}

func (b *fakeBus) events() []busRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]busRecord(nil), b.published...)
}

func (b *fakeBus) directEvents() []directRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]directRecord(nil), b.direct...)
}

// fakeConn is a router-facing connection that records direct replies.
type fakeConn struct {
	id     domain.ConnectionID
	userID domain.UserID
	kind   domain.ConnectionKind
	room   string

	mu     sync.Mutex
	frames [][]byte
}

func newFakeConn(userID string, kind domain.ConnectionKind, room string) *fakeConn {
	return &fakeConn{
		id:     domain.NewConnectionID(),
		userID: domain.UserID(userID),
		kind:   kind,
		room:   room,
	}
}

func (c *fakeConn) ID() domain.ConnectionID { return c.id }

func (c *fakeConn) UserID() domain.UserID { return c.userID }

func (c *fakeConn) Kind() domain.ConnectionKind { return c.kind }

func (c *fakeConn) RoomName() string { return c.room }

func (c *fakeConn) Deliver(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

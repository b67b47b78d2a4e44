package http

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/parleyhq/parley/internal/core/domain"
)

var errClientGone = errors.New("client connection gone")

// wsClient wraps one websocket connection. Deliver enqueues onto a
// buffered channel drained by the write pump, so a slow reader never
// blocks a publisher; a client that cannot keep up is closed and dropped.
type wsClient struct {
	id       domain.ConnectionID
	userID   domain.UserID
	kind     domain.ConnectionKind
	roomName string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn, kind domain.ConnectionKind, roomName string, userID domain.UserID) *wsClient {
	return &wsClient{
		id:       domain.NewConnectionID(),
		userID:   userID,
		kind:     kind,
		roomName: roomName,
		conn:     conn,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
	}
}

func (c *wsClient) ID() domain.ConnectionID {
	return c.id
}

func (c *wsClient) UserID() domain.UserID {
	return c.userID
}

func (c *wsClient) Kind() domain.ConnectionKind {
	return c.kind
}

func (c *wsClient) RoomName() string {
	return c.roomName
}

func (c *wsClient) Deliver(data []byte) error {
	select {
	case <-c.done:
		return errClientGone
	case c.send <- data:
		return nil
	default:
		// buffer full: the reader has stalled, cut it loose
		_ = c.Close()
		return errClientGone
	}
}

func (c *wsClient) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return nil
}

// writePump drains the send queue onto the socket. It owns all writes; it
// exits when the client is closed or the socket errors, closing the
// underlying connection so the read loop unblocks too.
func (c *wsClient) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

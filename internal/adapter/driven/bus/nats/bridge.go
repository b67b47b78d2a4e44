// Package nats mirrors room events between processes so that several hub
// instances form a single fanout domain per room. Each publish is relayed
// on a per-room subject; frames carry the origin process id so a hub never
// re-delivers its own events.
package nats

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/parleyhq/parley/internal/adapter/driven/gateway/ws"
	"github.com/parleyhq/parley/internal/core/domain"
	"github.com/rs/zerolog/log"
)

const originHeader = "Parley-Origin"

type Bridge struct {
	conn *nats.Conn
	hub  *ws.Hub
	id   string
	sub  *nats.Subscription
}

func Connect(url string, hub *ws.Hub) (*Bridge, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	b := &Bridge{
		conn: conn,
		hub:  hub,
		id:   uuid.New().String(),
	}

	b.sub, err = conn.Subscribe("room.>", b.receive)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}

	hub.SetForward(b.relay)
	return b, nil
}

func (b *Bridge) relay(key domain.RoomKey, data []byte) {
	msg := nats.NewMsg("room." + key.String())
	msg.Header.Set(originHeader, b.id)
	msg.Data = data
	if err := b.conn.PublishMsg(msg); err != nil {
		log.Error().Err(err).Str("room", key.String()).Msg("Failed to relay event to backbone")
	}
}

func (b *Bridge) receive(msg *nats.Msg) {
	if msg.Header.Get(originHeader) == b.id {
		return
	}
	key := domain.RoomKey(msg.Subject[len("room."):])
	b.hub.Fanout(key, msg.Data)
}

func (b *Bridge) Close() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("Failed to unsubscribe from backbone")
		}
	}
	b.conn.Close()
}

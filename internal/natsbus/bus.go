package natsbus

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/hafsabajwa/chatApp/internal/domain"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

const roomSubject = "room.events"

// Bus carries room events over NATS. Every hub publishes here and subscribes
// here, so broadcast order is whatever NATS delivers, uniformly for all
// clients of one server.
type Bus struct {
	conn *nats.Conn
	sub  *nats.Subscription
	log  logger.Logger
}

func Connect(url string, logg logger.Logger) (*Bus, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Bus{conn: nc, log: logg.WithModule("natsbus")}, nil
}

// Publish encodes the event and puts it on the room subject.
func (b *Bus) Publish(ev domain.Event) error {
	data, err := domain.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	return b.conn.Publish(roomSubject, data)
}

// Subscribe registers the broadcast handler. Undecodable payloads are skipped.
func (b *Bus) Subscribe(handler func(domain.Event)) error {
	sub, err := b.conn.Subscribe(roomSubject, func(msg *nats.Msg) {
		ev, err := domain.DecodeEvent(msg.Data)
		if err != nil {
			b.log.Warnf("skipping bad bus payload: %v", err)
			return
		}
		handler(ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", roomSubject, err)
	}
	b.sub = sub
	return nil
}

func (b *Bus) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.conn.Close()
}

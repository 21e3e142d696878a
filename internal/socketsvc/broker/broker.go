package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/game-manager/internal/comm"
)

// Conn is the part of *nats.Conn the feed needs.
type Conn interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Broker relays catalog events from NATS to the socket hub.
type Broker struct {
	Conn     Conn
	Dispatch func(comm.CatalogEvent) int
}

func NewBroker(conn Conn, dispatch func(comm.CatalogEvent) int) *Broker {
	return &Broker{
		Conn:     conn,
		Dispatch: dispatch,
	}
}

// Subscribe consumes every event on topic. Each feed instance holds its own
// sockets, so this is a plain subscription rather than a queue group.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// handleMessages receives catalog events from the game service
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	event := comm.CatalogEvent{}
	if err := json.Unmarshal(msgNats.Data, &event); err != nil {
		log.Errorf("Error decoding catalog event %s", err)
		return
	}

	switch event.Type {
	case comm.EventGameCreated, comm.EventGameUpdated, comm.EventGameDeleted:
		n := b.Dispatch(event)
		log.Debugf("%s for game %s sent to %d sockets", event.Type, event.GameID, n)
	case comm.EventGameOrphaned:
	default:
		log.Warnf("unknown catalog event %q", event.Type)
	}
}

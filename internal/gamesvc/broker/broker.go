package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/game-manager/internal/comm"
)

// Conn is the part of *nats.Conn the broker needs.
type Conn interface {
	Publish(subj string, data []byte) error
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// OrphanQueue is the queue group shared by all game service instances, so
// each orphan report is handled once.
const OrphanQueue = "catalog.orphans"

// Broker publishes catalog events for other services to consume.
type Broker struct {
	Conn       Conn
	Topic      string
	InstanceID string
}

func NewBroker(nc Conn, topic, instanceID string) *Broker {
	return &Broker{Conn: nc, Topic: topic, InstanceID: instanceID}
}

// PublishEvent stamps the event with this instance's id and publishes it on
// the broker topic.
func (b *Broker) PublishEvent(_ context.Context, event comm.CatalogEvent) error {
	event.InstanceID = b.InstanceID

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("unable to marshal %s event: %w", event.Type, err)
	}
	return b.Publish(b.Topic, payload)
}

// SubscribeOrphans calls handle for every game.orphaned event on the topic.
// Instances share OrphanQueue, so one of them sees each event.
func (b *Broker) SubscribeOrphans(handle func(comm.CatalogEvent)) (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(b.Topic, OrphanQueue, func(msg *nats.Msg) {
		event, ok := decodeEvent(msg.Data)
		if !ok || event.Type != comm.EventGameOrphaned {
			return
		}
		handle(event)
	})
}

func decodeEvent(data []byte) (comm.CatalogEvent, bool) {
	var event comm.CatalogEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Errorf("Error nats message %s", err)
		return event, false
	}
	return event, true
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

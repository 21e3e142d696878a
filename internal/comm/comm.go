package comm

import (
	"encoding/json"
	"time"
)

// Catalog event types published on the events subject.
const (
	EventGameCreated  = "game.created"
	EventGameUpdated  = "game.updated"
	EventGameDeleted  = "game.deleted"
	EventGameOrphaned = "game.orphaned"
)

type CatalogEvent struct {
	Type          string          `json:"type"`
	GameID        string          `json:"gameId"`
	DigitalUserID string          `json:"digitalUserId"`
	InstanceID    string          `json:"instanceId,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Orphan describes a row left behind after a failed compensating write.
type Orphan struct {
	Operation string `json:"operation"`
	Cause     string `json:"cause,omitempty"`
	Error     string `json:"error"`
}

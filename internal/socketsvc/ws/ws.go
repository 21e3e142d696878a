// Package ws keeps the open catalog feed sockets and fans catalog events out
// to the sockets of the user who owns the game.
package ws

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/game-manager/internal/comm"
)

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	Close() error
}

// writeWait bounds a single feed write.
const writeWait = 5 * time.Second

type client struct {
	userID string
	mu     sync.Mutex // one writer per socket
	conn   Conn
}

type Ws struct {
	connMap sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{}
}

func (s *Ws) StoreConnection(socketId, userID string, conn Conn) {
	s.connMap.Store(socketId, &client{userID: userID, conn: conn})
}

func (s *Ws) RemoveConnection(socketId string) {
	s.connMap.Delete(socketId)
}

// UserSockets returns the socket ids currently open for userID.
func (s *Ws) UserSockets(userID string) []string {
	var sockets []string
	s.connMap.Range(func(key, value any) bool {
		if value.(*client).userID == userID {
			sockets = append(sockets, key.(string))
		}
		return true
	})
	return sockets
}

// Dispatch writes event to every socket of the event's digital user and
// returns how many sockets received it. Orphan reports are operator facing
// and never reach the feed. A socket that fails a write is closed and dropped.
func (s *Ws) Dispatch(event comm.CatalogEvent) int {
	if event.Type == comm.EventGameOrphaned || event.DigitalUserID == "" {
		return 0
	}

	delivered := 0
	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		if c.userID != event.DigitalUserID {
			return true
		}

		c.mu.Lock()
		err := c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = c.conn.WriteJSON(event)
		}
		c.mu.Unlock()
		if err != nil {
			log.Warnf("feed write to socket %s failed: %s", key, err)
			s.connMap.Delete(key)
			_ = c.conn.Close()
			return true
		}
		delivered++
		return true
	})
	return delivered
}

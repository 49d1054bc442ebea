package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pefman/tactics-duel/internal/models"
	"github.com/pefman/tactics-duel/internal/session"
)

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Connection is one websocket watching a battle. Outgoing messages go
// through a bounded queue drained by writeLoop, in the order they were sent.
type Connection struct {
	ws       *websocket.Conn
	BattleID string

	sendCh    chan models.WsMsg
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newConnection(ws *websocket.Conn, battleID string) *Connection {
	return &Connection{
		ws:       ws,
		BattleID: battleID,
		sendCh:   make(chan models.WsMsg, sendQueueSize),
		closeCh:  make(chan struct{}),
	}
}

// send queues m. A connection whose queue is full is closed; the client
// reconnects and asks for the state again.
func (c *Connection) send(m models.WsMsg) bool {
	select {
	case <-c.closeCh:
		return false
	default:
	}
	select {
	case c.sendCh <- m:
		return true
	default:
		c.Close()
		return false
	}
}

// Close stops the write loop and closes the socket.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.closeCh:
			return
		case m := <-c.sendCh:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(m); err != nil {
				log.Printf("ws: write error battle=%s type=%s: %v", c.BattleID, m.Type, err)
				return
			}
		}
	}
}

// Hub fans battle events out to the websockets of that battle.
type Hub struct {
	mu sync.RWMutex
	// battleID -> connections watching it
	battleConns map[string][]*Connection
}

func NewHub() *Hub {
	return &Hub{battleConns: make(map[string][]*Connection)}
}

func (h *Hub) Join(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.battleConns[c.BattleID] = append(h.battleConns[c.BattleID], c)
}

func (h *Hub) Leave(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.battleConns[c.BattleID]
	for i, conn := range conns {
		if conn == c {
			h.battleConns[c.BattleID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.battleConns[c.BattleID]) == 0 {
		delete(h.battleConns, c.BattleID)
	}
}

// Watchers returns how many connections follow battleID.
func (h *Hub) Watchers(battleID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.battleConns[battleID])
}

// Broadcast queues msg on every connection of battleID without waiting for
// the writes.
func (h *Hub) Broadcast(battleID string, msg models.WsMsg) {
	h.mu.RLock()
	conns := append([]*Connection(nil), h.battleConns[battleID]...)
	h.mu.RUnlock()
	for _, c := range conns {
		if !c.send(msg) {
			log.Printf("ws: dropped battle=%s type=%s: connection closed or too slow", battleID, msg.Type)
		}
	}
}

// Observe is a session.Observer relaying events as websocket messages.
func (h *Hub) Observe(ev session.Event) {
	h.Broadcast(ev.BattleID, models.WsMsg{Type: ev.Type, Data: ev.Data})
}

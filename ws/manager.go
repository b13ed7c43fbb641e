package ws

import (
	"encoding/json"
	"sync"
	"time"

	"siar-server/logs"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Conn is the part of a websocket connection the manager writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	mu   sync.Mutex
	conn Conn
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Manager keeps track of dashboard websocket connections per user.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // userID -> conns
}

func NewManager() *Manager {
	return &Manager{clients: make(map[string]map[*client]struct{})}
}

// Register adds a connection for userID and returns its unregister func.
func (m *Manager) Register(userID string, conn Conn) func() {
	c := &client{conn: conn}
	m.mu.Lock()
	if m.clients[userID] == nil {
		m.clients[userID] = make(map[*client]struct{})
	}
	m.clients[userID][c] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { m.drop(userID, c) })
	}
}

func (m *Manager) drop(userID string, c *client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.clients[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(m.clients, userID)
		}
	}
	_ = c.conn.Close()
}

// Notify sends payload as JSON to every connection of userID. Failed
// connections are closed and dropped.
func (m *Manager) Notify(userID string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		logs.Logger.Errorf("ws: marshal notification: %v", err)
		return
	}

	m.mu.RLock()
	targets := make([]*client, 0, len(m.clients[userID]))
	for c := range m.clients[userID] {
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(b); err != nil {
			logs.Logger.WithField("user_id", userID).Debugf("ws: dropping connection: %v", err)
			m.drop(userID, c)
		}
	}
}

// Connections returns how many sockets userID has open.
func (m *Manager) Connections(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

package hub

import (
	"sync"

	"github.com/gorilla/websocket"
)

type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *Connection) ID() string { return c.id }

type cmdKind int

const (
	cmdRegister cmdKind = iota
	cmdUnregister
	cmdBroadcast
)

type command struct {
	kind    cmdKind
	conn    *Connection
	payload []byte
}

// Hub funnels all connection-set changes and broadcasts through one
// command channel, so they are applied in submission order by a single
// loop.
type Hub struct {
	commands chan command
	conns    map[*Connection]struct{}
}

func NewConnection(conn *websocket.Conn, id string) *Connection {
	return &Connection{
		id:   id,
		conn: conn,
		send: make(chan []byte, 128),
	}
}

func NewHub() *Hub {
	return &Hub{
		commands: make(chan command, 256),
		conns:    make(map[*Connection]struct{}),
	}
}

// Run drains the command channel. The connection set is only ever
// touched from this loop.
func (h *Hub) Run() {
	for cmd := range h.commands {
		switch cmd.kind {
		case cmdRegister:
			h.conns[cmd.conn] = struct{}{}

		case cmdUnregister:
			if _, ok := h.conns[cmd.conn]; ok {
				delete(h.conns, cmd.conn)
				cmd.conn.CloseSend()
			}

		case cmdBroadcast:
			for c := range h.conns {
				c.Send(cmd.payload)
			}
		}
	}
}

func (h *Hub) Register(c *Connection) {
	h.commands <- command{kind: cmdRegister, conn: c}
}

func (h *Hub) Unregister(c *Connection) {
	h.commands <- command{kind: cmdUnregister, conn: c}
}

// Broadcast fans a payload out to every live connection, best-effort.
// A connection registered before the call is guaranteed to be in the
// target set.
func (h *Hub) Broadcast(payload []byte) {
	h.commands <- command{kind: cmdBroadcast, payload: payload}
}

func (c *Connection) Send(b []byte) {
	select {
	case c.send <- b:
	default:
	}
}

func (c *Connection) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

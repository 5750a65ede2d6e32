package hub

import (
	"github.com/gorilla/websocket"

	"github.com/hafsabajwa/chatApp/internal/domain"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

// Connection is one client's websocket attachment to the hub. The username is
// learned from the Join frame and only touched on the hub's Run loop.
type Connection struct {
	ws       *websocket.Conn
	send     chan domain.Event
	hub      *Hub
	log      logger.Logger
	username string
}

func NewConnection(ws *websocket.Conn, h *Hub, logg logger.Logger) *Connection {
	return &Connection{
		ws:   ws,
		send: make(chan domain.Event, 256),
		hub:  h,
		log:  logg.WithModule("conn"),
	}
}

// ReadPump decodes inbound frames and hands them to the hub. Bad frames are
// dropped; read errors end the connection.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.ws.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warnf("read error: %v", err)
			}
			return
		}

		ev, err := domain.DecodeEvent(data)
		if err != nil {
			c.log.Warnf("dropping bad frame from %s: %v", c.ws.RemoteAddr(), err)
			continue
		}
		c.hub.inbound <- inbound{conn: c, ev: ev}
	}
}

// WritePump is the only writer on the socket; it drains the send channel until
// the hub closes it.
func (c *Connection) WritePump() {
	defer c.ws.Close()

	for ev := range c.send {
		data, err := domain.EncodeEvent(ev)
		if err != nil {
			c.log.Errorf("cannot encode %s event: %v", domain.Type(ev), err)
			continue
		}
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			c.log.Warnf("write error: %v", err)
			return
		}
	}
}

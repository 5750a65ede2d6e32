package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/hafsabajwa/chatApp/internal/domain"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

// Bus fans room events out to every hub, local or remote. The NATS client
// satisfies this.
type Bus interface {
	Publish(ev domain.Event) error
}

// Presence stores the set of active display names. The Redis client satisfies
// this.
type Presence interface {
	Add(username string) error
	Remove(username string) error
	List() ([]string, error)
}

type inbound struct {
	conn *Connection
	ev   domain.Event
}

// Hub owns the set of live connections for one room and routes every inbound
// frame. All connection and presence bookkeeping happens on the Run loop;
// broadcasts take a read lock only.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Connection]bool

	Register   chan *Connection
	Unregister chan *Connection
	inbound    chan inbound

	bus      Bus
	presence Presence
	log      logger.Logger
}

func New(bus Bus, presence Presence, logg logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Connection]bool),
		Register:   make(chan *Connection),
		Unregister: make(chan *Connection),
		inbound:    make(chan inbound, 64),
		bus:        bus,
		presence:   presence,
		log:        logg.WithModule("hub"),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case conn := <-h.Register:
			h.addClient(conn)
		case conn := <-h.Unregister:
			h.dropClient(conn)
		case in := <-h.inbound:
			h.handle(in.conn, in.ev)
		case <-ctx.Done():
			h.Close()
			return
		}
	}
}

// handle applies one client frame. Join and Leave drive presence; chat, edit
// and delete are rebroadcast untouched, messageId included, so the sender's
// optimistic entry reconciles against the echo.
func (h *Hub) handle(conn *Connection, ev domain.Event) {
	switch e := ev.(type) {
	case domain.Join:
		conn.username = e.Username
		if err := h.presence.Add(e.Username); err != nil {
			h.log.Errorf("presence add %s: %v", e.Username, err)
		}
		h.publish(domain.Notification{Message: fmt.Sprintf("%s joined the room", e.Username)})
		h.publishPresence()

	case domain.Leave:
		h.announceDeparture(e.Username)
		conn.username = ""

	case domain.Chat, domain.Edit, domain.Delete:
		h.publish(ev)

	default:
		h.log.Debugf("ignoring client frame %s", domain.Type(ev))
	}
}

func (h *Hub) announceDeparture(username string) {
	if username == "" {
		return
	}
	if err := h.presence.Remove(username); err != nil {
		h.log.Errorf("presence remove %s: %v", username, err)
	}
	h.publish(domain.Notification{Message: fmt.Sprintf("%s left the room", username)})
	h.publishPresence()
}

func (h *Hub) publish(ev domain.Event) {
	if err := h.bus.Publish(ev); err != nil {
		h.log.Errorf("publish %s: %v", domain.Type(ev), err)
	}
}

func (h *Hub) publishPresence() {
	users, err := h.presence.List()
	if err != nil {
		h.log.Errorf("presence list: %v", err)
		return
	}
	h.publish(domain.ActiveUsers{Users: users})
}

// Broadcast delivers a bus event to every connected client. Wire this as the
// bus subscription handler.
func (h *Hub) Broadcast(ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		select {
		case conn.send <- ev:
		default:
			// Slow consumer; cut it loose rather than stall the room.
			go func(c *Connection) { h.Unregister <- c }(conn)
		}
	}
}

// Close shuts down every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		close(conn.send)
		conn.ws.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) addClient(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) dropClient(conn *Connection) {
	h.mu.Lock()
	exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
		close(conn.send)
	}
	h.mu.Unlock()

	// Abrupt disconnects never sent Leave; announce for them.
	if exists {
		h.announceDeparture(conn.username)
	}
}

package ws

import (
	"net/http"

	gws "github.com/gorilla/websocket"

	"github.com/hafsabajwa/chatApp/internal/hub"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

var upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // single-room dev server; restrict in production
	},
}

// HandleRoom upgrades the request and attaches the connection to the hub. The
// participant's name arrives in the Join frame, the first thing a well-behaved
// client sends.
func HandleRoom(h *hub.Hub, logg logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("upgrade error: %v", err)
			return
		}

		client := hub.NewConnection(conn, h, logg)
		h.Register <- client
		logg.Infof("new connection from %s", conn.RemoteAddr())

		go client.ReadPump()
		go client.WritePump()
	}
}

package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hafsabajwa/chatApp/internal/domain"
	"github.com/hafsabajwa/chatApp/internal/reconcile"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

var upgrader = websocket.Upgrader{}

// echoServer mimics the room server: chat, edit and delete frames are echoed
// back verbatim, a join triggers a notification and a presence snapshot.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		write := func(ev domain.Event) {
			data, err := domain.EncodeEvent(ev)
			require.NoError(t, err)
			conn.WriteMessage(websocket.TextMessage, data)
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ev, err := domain.DecodeEvent(data)
			if err != nil {
				continue
			}
			switch e := ev.(type) {
			case domain.Join:
				write(domain.Notification{Message: e.Username + " joined the room"})
				write(domain.ActiveUsers{Users: []string{e.Username}})
			case domain.Chat, domain.Edit, domain.Delete:
				write(ev)
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func joinRoom(t *testing.T, srv *httptest.Server) (RoomService, chan reconcile.Snapshot) {
	t.Helper()
	ctx := logger.NewContext(context.Background(), logger.NewLogger("error", ""))

	room, err := NewRoomService(ctx, "ws"+srv.URL[4:], "alice")
	require.NoError(t, err)

	updates := make(chan reconcile.Snapshot, 32)
	require.NoError(t, room.Join(ctx, func(s reconcile.Snapshot) { updates <- s }))

	t.Cleanup(func() {
		room.Leave()
		select {
		case <-room.Done():
		case <-time.After(2 * time.Second):
		}
	})
	return room, updates
}

func nextSnapshot(t *testing.T, updates chan reconcile.Snapshot) reconcile.Snapshot {
	t.Helper()
	select {
	case s := <-updates:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot update arrived")
		return reconcile.Snapshot{}
	}
}

func TestJoinYieldsNotificationAndPresence(t *testing.T) {
	_, updates := joinRoom(t, echoServer(t))

	snap := nextSnapshot(t, updates)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, domain.KindNotification, snap.Messages[0].Kind)
	assert.Equal(t, "alice joined the room", snap.Messages[0].Content)

	snap = nextSnapshot(t, updates)
	assert.Equal(t, []string{"alice"}, snap.Users)
}

func TestValidationFailuresBeforeAnyTransmission(t *testing.T) {
	ctx := context.Background()
	_, err := NewRoomService(ctx, "", "alice")
	assert.Error(t, err)
	_, err = NewRoomService(ctx, "ws://localhost:8080/ws", "   ")
	assert.Error(t, err)
}

func TestChatRoundTripReconcilesEcho(t *testing.T) {
	room, updates := joinRoom(t, echoServer(t))

	// Drain the join notification and presence updates.
	nextSnapshot(t, updates)
	nextSnapshot(t, updates)

	// SendChat can race the dial; retry until the session opens.
	var id string
	require.Eventually(t, func() bool {
		var err error
		id, err = room.SendChat("hi")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	// Optimistic local append, before any echo.
	snap := nextSnapshot(t, updates)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, id, snap.Messages[1].ID)
	assert.Equal(t, "hi", snap.Messages[1].Content)

	// The echo reconciles instead of duplicating.
	snap = nextSnapshot(t, updates)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, id, snap.Messages[1].ID)

	// Edits come back over the wire before the view changes.
	require.NoError(t, room.EditMessage(id, "hi there"))
	snap = nextSnapshot(t, updates)
	assert.Equal(t, "hi there", snap.Messages[1].Content)
	assert.True(t, snap.Messages[1].Edited)

	// Same for deletes, confirmation supplied by the caller.
	require.NoError(t, room.DeleteMessage(id, true))
	snap = nextSnapshot(t, updates)
	assert.True(t, snap.Messages[1].Deleted)
	assert.Equal(t, domain.DeletedContent, snap.Messages[1].Content)
}

func TestLeaveEndsTheSessionCleanly(t *testing.T) {
	room, updates := joinRoom(t, echoServer(t))
	nextSnapshot(t, updates)
	nextSnapshot(t, updates)

	room.Leave()

	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session never ended after Leave")
	}
	assert.NoError(t, room.Err())
}

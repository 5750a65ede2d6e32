package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event is the tagged union of every frame the room protocol carries. The
// unexported method keeps the set closed so the reconciler can dispatch with
// one exhaustive type switch.
type Event interface {
	eventType() EventType
}

type EventType string

const (
	EventJoin         EventType = "join"
	EventLeave        EventType = "leave"
	EventChat         EventType = "chat"
	EventEdit         EventType = "edit"
	EventDelete       EventType = "delete"
	EventNotification EventType = "notification"
	EventActiveUsers  EventType = "activeUsers"
)

// Join announces a participant entering the room. Sent once when the
// connection opens, before anything else.
type Join struct {
	Username string
}

// Leave announces a participant going away. Sent once, before close.
type Leave struct {
	Username string
}

// Chat carries a chat message. The MessageID is chosen by the sending client
// and echoed back unchanged by the server.
type Chat struct {
	MessageID string
	Username  string
	Message   string
}

// Edit requests (client to server) or confirms (server to client) a content
// change of an existing message.
type Edit struct {
	MessageID string
	Username  string
	Message   string
}

// Delete requests or confirms a message tombstone.
type Delete struct {
	MessageID string
	Username  string
}

// Notification is a server-authored room announcement. It has no author and
// is immutable.
type Notification struct {
	Message string
}

// ActiveUsers is a full-replacement presence snapshot, never a delta.
type ActiveUsers struct {
	Users []string
}

func (Join) eventType() EventType         { return EventJoin }
func (Leave) eventType() EventType        { return EventLeave }
func (Chat) eventType() EventType         { return EventChat }
func (Edit) eventType() EventType         { return EventEdit }
func (Delete) eventType() EventType       { return EventDelete }
func (Notification) eventType() EventType { return EventNotification }
func (ActiveUsers) eventType() EventType  { return EventActiveUsers }

// Type exposes the wire discriminator of an event.
func Type(ev Event) EventType { return ev.eventType() }

var ErrUnknownEvent = errors.New("unknown event type")

// frame is the single JSON object each websocket message carries.
type frame struct {
	Type      EventType `json:"type"`
	Username  string    `json:"username,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Message   string    `json:"message,omitempty"`
	Users     []string  `json:"users,omitempty"`
}

// DecodeEvent parses one wire frame into a typed event. Malformed payloads and
// unrecognized discriminators come back as errors; callers drop those frames
// and keep reading.
func DecodeEvent(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch f.Type {
	case EventJoin:
		return Join{Username: f.Username}, nil
	case EventLeave:
		return Leave{Username: f.Username}, nil
	case EventChat:
		return Chat{MessageID: f.MessageID, Username: f.Username, Message: f.Message}, nil
	case EventEdit:
		return Edit{MessageID: f.MessageID, Username: f.Username, Message: f.Message}, nil
	case EventDelete:
		return Delete{MessageID: f.MessageID, Username: f.Username}, nil
	case EventNotification:
		return Notification{Message: f.Message}, nil
	case EventActiveUsers:
		return ActiveUsers{Users: f.Users}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Type)
	}
}

// EncodeEvent serializes a typed event into its wire frame.
func EncodeEvent(ev Event) ([]byte, error) {
	f := frame{Type: ev.eventType()}

	switch e := ev.(type) {
	case Join:
		f.Username = e.Username
	case Leave:
		f.Username = e.Username
	case Chat:
		f.MessageID, f.Username, f.Message = e.MessageID, e.Username, e.Message
	case Edit:
		f.MessageID, f.Username, f.Message = e.MessageID, e.Username, e.Message
	case Delete:
		f.MessageID, f.Username = e.MessageID, e.Username
	case Notification:
		f.Message = e.Message
	case ActiveUsers:
		f.Users = e.Users
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}

	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

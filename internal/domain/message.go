package domain

type MessageKind string

const (
	KindNotification MessageKind = "notification"
	KindChat         MessageKind = "chat"
)

// DeletedContent replaces the body of a deleted message. The entry keeps its
// place in the log; deletion is a tombstone, not a removal.
const DeletedContent = "this message is deleted"

// Message is one entry in the room log. The ID never changes after creation,
// and Edited/Deleted only ever flip from false to true.
type Message struct {
	ID      string      `json:"id"`
	Kind    MessageKind `json:"kind"`
	Author  string      `json:"author,omitempty"`
	Content string      `json:"content"`
	Edited  bool        `json:"edited,omitempty"`
	Deleted bool        `json:"deleted,omitempty"`
}

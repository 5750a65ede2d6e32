package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hafsabajwa/chatApp/internal/domain"
	"github.com/hafsabajwa/chatApp/pkg/ident"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

var (
	// ErrEmptyInput rejects blank chat or edit text before it reaches the wire.
	ErrEmptyInput = errors.New("reconcile: empty input")
	// ErrUnchanged rejects an edit whose text equals the current content.
	ErrUnchanged = errors.New("reconcile: content unchanged")
	// ErrNotAuthor rejects edit/delete of a message the local user did not write.
	ErrNotAuthor = errors.New("reconcile: not the message author")
	// ErrDeleted rejects edits of a tombstoned message.
	ErrDeleted = errors.New("reconcile: message is deleted")
	// ErrUnknownMessage rejects local actions on ids not present in the log.
	ErrUnknownMessage = errors.New("reconcile: unknown message id")
)

// Sender transmits an outbound event. The session satisfies this; its Send
// reports session.ErrNotOpen when no connection is open, which the submit
// methods pass through to the caller.
type Sender interface {
	Send(domain.Event) error
}

// Reconciler keeps the local message log and presence set consistent with the
// inbound event stream. All mutation goes through one mutex-serialized apply
// path; readers get immutable snapshots and never share mutable state with it.
type Reconciler struct {
	username string
	ids      *ident.Generator
	sender   Sender
	log      logger.Logger

	mu    sync.Mutex
	order []string
	byID  map[string]*domain.Message
	users []string

	snap *Snapshot
}

func New(username string, ids *ident.Generator, sender Sender, logg logger.Logger) *Reconciler {
	r := &Reconciler{
		username: username,
		ids:      ids,
		sender:   sender,
		log:      logg.WithModule("reconcile"),
		byID:     make(map[string]*domain.Message),
	}
	r.snap = &Snapshot{}
	return r
}

// Apply folds one inbound event into the log and presence set. Events are
// applied strictly in arrival order; the transport is assumed ordered and
// reliable, so no buffering or reordering happens here.
func (r *Reconciler) Apply(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := ev.(type) {
	case domain.Notification:
		r.append(&domain.Message{
			ID:      r.ids.Next(),
			Kind:    domain.KindNotification,
			Content: e.Message,
		})

	case domain.Chat:
		if m, ok := r.byID[e.MessageID]; ok {
			// Echo of our own optimistic entry: the authoritative payload wins
			// for author and content, locally observed flags stay. A tombstone
			// keeps its content regardless.
			m.Author = e.Username
			if !m.Deleted {
				m.Content = e.Message
			}
		} else {
			r.append(&domain.Message{
				ID:      e.MessageID,
				Kind:    domain.KindChat,
				Author:  e.Username,
				Content: e.Message,
			})
		}

	case domain.Edit:
		m, ok := r.byID[e.MessageID]
		if !ok || m.Deleted {
			// Best-effort protocol: edits of unknown or tombstoned messages
			// are dropped, not errors.
			r.log.Debugf("ignoring edit for %s", e.MessageID)
			return
		}
		m.Content = e.Message
		m.Edited = true

	case domain.Delete:
		m, ok := r.byID[e.MessageID]
		if !ok {
			r.log.Debugf("ignoring delete for %s", e.MessageID)
			return
		}
		if m.Deleted {
			return // idempotent
		}
		m.Content = domain.DeletedContent
		m.Deleted = true

	case domain.ActiveUsers:
		// Full replacement, never a merge with the previous set.
		r.users = dedupe(e.Users)

	case domain.Join, domain.Leave:
		// Client-to-server announcements; a server reflecting them carries no
		// state we track.
		return

	default:
		r.log.Warnf("unhandled event type %s", domain.Type(ev))
		return
	}

	r.publish()
}

// SubmitChat validates and transmits a new chat message. The message appears
// in the local log immediately, keyed by a freshly generated id; the server
// echo of the same id reconciles into this entry instead of duplicating it.
func (r *Reconciler) SubmitChat(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.ids.Next()
	if err := r.sender.Send(domain.Chat{MessageID: id, Username: r.username, Message: text}); err != nil {
		return "", fmt.Errorf("submit chat: %w", err)
	}

	r.append(&domain.Message{
		ID:      id,
		Kind:    domain.KindChat,
		Author:  r.username,
		Content: text,
	})
	r.publish()
	return id, nil
}

// SubmitEdit validates and transmits an edit of one of the local user's
// messages. The local entry is not touched; the inbound echo mutates it, so
// confirmed edits and remote edits share one code path.
func (r *Reconciler) SubmitEdit(id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return ErrUnknownMessage
	}
	if m.Author != r.username {
		return ErrNotAuthor
	}
	if m.Deleted {
		return ErrDeleted
	}
	if text == m.Content {
		return ErrUnchanged
	}

	if err := r.sender.Send(domain.Edit{MessageID: id, Username: r.username, Message: text}); err != nil {
		return fmt.Errorf("submit edit: %w", err)
	}
	return nil
}

// SubmitDelete transmits a delete for one of the local user's messages.
// Confirmation is the caller's job; an unconfirmed delete is a quiet no-op.
// As with edits, the tombstone lands when the echo arrives.
func (r *Reconciler) SubmitDelete(id string, confirmed bool) error {
	if !confirmed {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return ErrUnknownMessage
	}
	if m.Author != r.username {
		return ErrNotAuthor
	}
	if m.Deleted {
		return nil
	}

	if err := r.sender.Send(domain.Delete{MessageID: id, Username: r.username}); err != nil {
		return fmt.Errorf("submit delete: %w", err)
	}
	return nil
}

// append adds a message under lock. Insertion order is iteration order.
func (r *Reconciler) append(m *domain.Message) {
	r.order = append(r.order, m.ID)
	r.byID[m.ID] = m
}

func dedupe(users []string) []string {
	seen := make(map[string]struct{}, len(users))
	out := make([]string, 0, len(users))
	for _, u := range users {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

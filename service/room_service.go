package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hafsabajwa/chatApp/internal/reconcile"
	"github.com/hafsabajwa/chatApp/internal/session"
	"github.com/hafsabajwa/chatApp/pkg/ident"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

// RoomService is the client-side composition: one session, one reconciler,
// one identity generator, glued by a pump that folds inbound events into the
// log and re-publishes the view.
type RoomService interface {
	Join(ctx context.Context, onChange func(reconcile.Snapshot)) error
	SendChat(text string) (string, error)
	EditMessage(id, text string) error
	DeleteMessage(id string, confirmed bool) error
	Snapshot() reconcile.Snapshot
	Leave()

	// Done closes once the session has ended, cleanly or not; Err reports why.
	Done() <-chan struct{}
	Err() error
}

type roomService struct {
	endpoint string
	username string
	log      logger.Logger

	sess     *session.Session
	rec      *reconcile.Reconciler
	onChange func(reconcile.Snapshot)
	done     chan struct{}
}

func NewRoomService(ctx context.Context, endpoint, username string) (RoomService, error) {
	username = strings.TrimSpace(username)
	if endpoint == "" || username == "" {
		return nil, fmt.Errorf("room endpoint and username cannot be empty")
	}
	return &roomService{
		endpoint: endpoint,
		username: username,
		log:      logger.FromContext(ctx).WithModule("room"),
		done:     make(chan struct{}),
	}, nil
}

// Join dials the room and starts the event pump. onChange fires with a fresh
// snapshot after every effective change, local submits included.
func (r *roomService) Join(ctx context.Context, onChange func(reconcile.Snapshot)) error {
	if r.sess != nil {
		return fmt.Errorf("already joined")
	}

	r.sess = session.Dial(ctx, r.endpoint, r.username, r.log)
	r.rec = reconcile.New(r.username, ident.NewGenerator(), r.sess, r.log)
	r.onChange = onChange

	go func() {
		defer close(r.done)
		for ev := range r.sess.Events() {
			r.rec.Apply(ev)
			if onChange != nil {
				onChange(r.rec.Snapshot())
			}
		}
		if err := r.sess.Err(); err != nil {
			r.log.Warnf("session ended: %v", err)
		}
	}()

	r.log.Infof("joining %s as %s", r.endpoint, r.username)
	return nil
}

func (r *roomService) SendChat(text string) (string, error) {
	id, err := r.rec.SubmitChat(text)
	if err == nil {
		// The optimistic append changed the view before any echo.
		r.notify()
	}
	return id, err
}

func (r *roomService) notify() {
	if r.onChange != nil {
		r.onChange(r.rec.Snapshot())
	}
}

func (r *roomService) EditMessage(id, text string) error {
	return r.rec.SubmitEdit(id, text)
}

func (r *roomService) DeleteMessage(id string, confirmed bool) error {
	return r.rec.SubmitDelete(id, confirmed)
}

func (r *roomService) Snapshot() reconcile.Snapshot {
	return r.rec.Snapshot()
}

// Leave announces departure and closes the connection. Safe to call in any
// session state; a dial still in flight defers the leave until the channel
// can carry it.
func (r *roomService) Leave() {
	if r.sess != nil {
		r.sess.Close()
	}
}

func (r *roomService) Done() <-chan struct{} {
	return r.done
}

func (r *roomService) Err() error {
	if r.sess == nil {
		return nil
	}
	return r.sess.Err()
}

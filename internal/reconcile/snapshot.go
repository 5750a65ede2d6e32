package reconcile

import "github.com/hafsabajwa/chatApp/internal/domain"

// Snapshot is the render-ready view handed to the display layer. It is built
// copy-on-write on every mutation and never shares memory with the live log,
// so readers may hold it for as long as they like.
type Snapshot struct {
	Messages []domain.Message
	Users    []string
}

// Snapshot returns the latest published view. Safe to call concurrently with
// Apply and the submit methods.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.snap
}

// publish rebuilds the immutable snapshot. Called under lock after every
// effective mutation.
func (r *Reconciler) publish() {
	msgs := make([]domain.Message, 0, len(r.order))
	for _, id := range r.order {
		msgs = append(msgs, *r.byID[id])
	}
	users := make([]string, len(r.users))
	copy(users, r.users)
	r.snap = &Snapshot{Messages: msgs, Users: users}
}

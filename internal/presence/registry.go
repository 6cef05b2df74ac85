package presence

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is one live connection owned by a user. Payloads handed to a handle
// are delivered in order; Enqueue fails when the connection is gone.
type Handle interface {
	Enqueue(payload []byte) error
}

// Registry tracks which users currently hold live connections. It is
// process-lifetime, in-memory state: nothing is persisted and a restart
// starts from empty. A user is online iff they hold at least one handle.
// There is no package-level singleton; callers construct and inject their
// own instance.
type Registry struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[Handle]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[uuid.UUID]map[Handle]struct{})}
}

// Register adds a handle under the user, creating the entry if absent. It
// reports whether this was the user's first handle, i.e. an offline→online
// transition.
func (r *Registry) Register(userID uuid.UUID, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.users[userID]
	if !ok {
		handles = make(map[Handle]struct{})
		r.users[userID] = handles
	}
	handles[h] = struct{}{}
	return !ok
}

// Unregister removes the handle; an emptied entry is deleted. It reports
// whether this was the user's last handle, i.e. an online→offline
// transition. Unregistering an unknown handle is a no-op.
func (r *Registry) Unregister(userID uuid.UUID, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.users[userID]
	if !ok {
		return false
	}
	if _, ok := handles[h]; !ok {
		return false
	}
	delete(handles, h)
	if len(handles) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user holds at least one live handle.
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// Handles returns a snapshot of the user's live handles, possibly empty.
// Callers dispatch against the snapshot so concurrent churn cannot disturb
// an in-flight broadcast.
func (r *Registry) Handles(userID uuid.UUID) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]Handle, 0, len(r.users[userID]))
	for h := range r.users[userID] {
		handles = append(handles, h)
	}
	return handles
}

// OnlineUsers returns a snapshot of every user currently holding a handle.
func (r *Registry) OnlineUsers() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

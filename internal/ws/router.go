package ws

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/presence"
)

// Router fans events out to the live connections of target users. It reads a
// snapshot of each user's handles from the registry before dispatching, so
// connections registered or dropped mid-broadcast never disturb an in-flight
// delivery. A dead handle is skipped; its own read loop handles cleanup.
type Router struct {
	registry *presence.Registry
}

// NewRouter constructs a Router over the given registry.
func NewRouter(registry *presence.Registry) *Router {
	return &Router{registry: registry}
}

// ToUsers delivers the event to every live connection of each target user.
// Users without connections are skipped silently.
func (r *Router) ToUsers(userIDs []uuid.UUID, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal %s event: %v", event.EventName(), err)
		return
	}
	for _, userID := range userIDs {
		r.deliver(userID, event.EventName(), payload)
	}
}

// ToUser delivers the event to a single user's connections.
func (r *Router) ToUser(userID uuid.UUID, event models.Event) {
	r.ToUsers([]uuid.UUID{userID}, event)
}

// ToAllExcept delivers the event to every user currently online, skipping the
// excluded one. Used for status fan-out where the subject must not hear about
// itself.
func (r *Router) ToAllExcept(except uuid.UUID, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal %s event: %v", event.EventName(), err)
		return
	}
	for _, userID := range r.registry.OnlineUsers() {
		if userID == except {
			continue
		}
		r.deliver(userID, event.EventName(), payload)
	}
}

func (r *Router) deliver(userID uuid.UUID, eventName string, payload []byte) {
	for _, h := range r.registry.Handles(userID) {
		if err := h.Enqueue(payload); err != nil {
			log.Printf("ws: dropping delivery to user %s: %v", userID, err)
			observability.IncWSDelivery(eventName, "error")
			continue
		}
		observability.IncWSDelivery(eventName, "ok")
	}
}

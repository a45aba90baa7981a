package delivery

import (
	"encoding/json"
	"log"
	"time"

	"github.com/example/realtime-chat/events"
	"github.com/example/realtime-chat/modules/presence"
)

// NewMessagePayload is the frame pushed to clients for each delivered
// message. The id and timestamp are the ones assigned by the message log.
type NewMessagePayload struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	RecipientID *string   `json:"recipient_id"`
	Body        string    `json:"body"`
	Timestamp   time.Time `json:"timestamp"`
}

// Router pushes persisted messages to the live connections that should
// see them. It operates strictly after persistence: a routing failure can
// never roll back a stored message.
type Router struct {
	registry *presence.Registry
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *presence.Registry) *Router {
	return &Router{registry: registry}
}

// resolveRecipients computes the connection set for a message. Broadcast
// and directed messages share this single path so ordering and error
// handling cannot diverge between the two:
//   - broadcast: every live connection
//   - directed: the recipient's connections plus the sender's, so the
//     sender's other devices see their own sent message
func (r *Router) resolveRecipients(event events.MessageStoredEvent) []*presence.Client {
	if event.RecipientID == nil {
		return r.registry.AllClients()
	}

	clients := r.registry.ConnectionsFor(*event.RecipientID)
	if event.SenderID != *event.RecipientID {
		clients = append(clients, r.registry.ConnectionsFor(event.SenderID)...)
	}
	return clients
}

// Route pushes the message to every resolved connection. Individual push
// failures are logged and the dead handle is unregistered; they never
// affect delivery to the other recipients. Routing to a user with no live
// connections is a no-op. Returns the number of connections reached.
func (r *Router) Route(event events.MessageStoredEvent) int {
	clients := r.resolveRecipients(event)
	if len(clients) == 0 {
		return 0
	}

	payload, err := json.Marshal(NewMessagePayload{
		Type:        "new_message",
		ID:          event.MessageID,
		SenderID:    event.SenderID,
		SenderName:  event.SenderName,
		RecipientID: event.RecipientID,
		Body:        event.Body,
		Timestamp:   event.Timestamp,
	})
	if err != nil {
		log.Printf("[delivery] Failed to marshal message %d: %v", event.MessageID, err)
		return 0
	}

	delivered := 0
	for _, client := range clients {
		if err := client.Send(payload); err != nil {
			log.Printf("[delivery] Push to connection %s failed: %v", client.Handle, err)
			r.registry.Unregister(client.Handle)
			continue
		}
		delivered++
	}
	return delivered
}

package delivery

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/example/realtime-chat/events"
	"github.com/example/realtime-chat/modules/presence"
)

// fakeConn exposes delivered text frames on a channel so tests can wait
// for the write pump without sleeping.
type fakeConn struct {
	mu     sync.Mutex
	closed bool
	frames chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16)}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	if messageType == websocket.TextMessage {
		c.frames <- data
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) waitFrame(t *testing.T) NewMessagePayload {
	t.Helper()
	select {
	case data := <-c.frames:
		var payload NewMessagePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return payload
	case <-time.After(time.Second):
		t.Fatal("no frame delivered within deadline")
		return NewMessagePayload{}
	}
}

func (c *fakeConn) assertNoFrame(t *testing.T) {
	t.Helper()
	select {
	case data := <-c.frames:
		t.Fatalf("unexpected frame delivered: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func connect(r *presence.Registry, handle, userID string) *fakeConn {
	conn := newFakeConn()
	r.Register(presence.NewClient(handle, userID, "user-"+userID, conn))
	return conn
}

func broadcastEvent(id int64, senderID, body string) events.MessageStoredEvent {
	return events.MessageStoredEvent{
		MessageID:  id,
		SenderID:   senderID,
		SenderName: "user-" + senderID,
		Body:       body,
		Timestamp:  time.Now().UTC(),
	}
}

func directedEvent(id int64, senderID, recipientID, body string) events.MessageStoredEvent {
	event := broadcastEvent(id, senderID, body)
	event.RecipientID = &recipientID
	return event
}

func TestRouter_BroadcastReachesEveryConnection(t *testing.T) {
	registry := presence.NewRegistry()
	router := NewRouter(registry)

	alice := connect(registry, "h-alice", "alice")
	bobPhone := connect(registry, "h-bob-1", "bob")
	bobLaptop := connect(registry, "h-bob-2", "bob")

	event := broadcastEvent(1, "alice", "hello everyone")
	if got := router.Route(event); got != 3 {
		t.Errorf("Route() = %d, want 3", got)
	}

	for _, conn := range []*fakeConn{alice, bobPhone, bobLaptop} {
		payload := conn.waitFrame(t)
		if payload.Type != "new_message" {
			t.Errorf("payload type = %q, want %q", payload.Type, "new_message")
		}
		if payload.ID != 1 || payload.Body != "hello everyone" {
			t.Errorf("payload = %+v, want id 1 body %q", payload, "hello everyone")
		}
		if payload.RecipientID != nil {
			t.Errorf("broadcast payload has recipient %v", *payload.RecipientID)
		}
	}
}

func TestRouter_DirectedReachesSenderAndRecipientOnly(t *testing.T) {
	registry := presence.NewRegistry()
	router := NewRouter(registry)

	alice := connect(registry, "h-alice", "alice")
	bob := connect(registry, "h-bob", "bob")
	carol := connect(registry, "h-carol", "carol")

	event := directedEvent(7, "alice", "bob", "just for you")
	if got := router.Route(event); got != 2 {
		t.Errorf("Route() = %d, want 2", got)
	}

	for _, conn := range []*fakeConn{alice, bob} {
		payload := conn.waitFrame(t)
		if payload.RecipientID == nil || *payload.RecipientID != "bob" {
			t.Errorf("payload recipient = %v, want bob", payload.RecipientID)
		}
	}
	carol.assertNoFrame(t)
}

func TestRouter_SelfMessageDeliveredOnce(t *testing.T) {
	registry := presence.NewRegistry()
	router := NewRouter(registry)

	alice := connect(registry, "h-alice", "alice")

	event := directedEvent(9, "alice", "alice", "note to self")
	if got := router.Route(event); got != 1 {
		t.Errorf("Route() = %d, want 1", got)
	}

	alice.waitFrame(t)
	alice.assertNoFrame(t)
}

func TestRouter_OfflineRecipientIsNoop(t *testing.T) {
	registry := presence.NewRegistry()
	router := NewRouter(registry)

	event := directedEvent(3, "alice", "bob", "anyone there")
	if got := router.Route(event); got != 0 {
		t.Errorf("Route() = %d, want 0", got)
	}
}

func TestRouter_DeadConnectionDoesNotBlockOthers(t *testing.T) {
	registry := presence.NewRegistry()
	router := NewRouter(registry)

	alice := connect(registry, "h-alice", "alice")

	dead := presence.NewClient("h-bob", "bob", "user-bob", newFakeConn())
	registry.Register(dead)
	dead.Close()

	event := broadcastEvent(5, "alice", "still coming through")
	if got := router.Route(event); got != 1 {
		t.Errorf("Route() = %d, want 1", got)
	}
	alice.waitFrame(t)

	// The failed push evicts the dead handle
	if got := len(registry.ConnectionsFor("bob")); got != 0 {
		t.Errorf("ConnectionsFor(bob) len = %d, want 0", got)
	}
}

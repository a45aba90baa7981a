package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageStoredEvent is emitted by the messages module after a message
// has been committed to the log. The delivery module consumes it to push
// the message to live connections. RecipientID is nil for broadcasts.
type MessageStoredEvent struct {
	MessageID   int64     `json:"message_id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	RecipientID *string   `json:"recipient_id"`
	Body        string    `json:"body"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserRegisteredEvent is emitted by the auth module when a new account
// is created.
type UserRegisteredEvent struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageStoredV1 = helper.EventDefinition[MessageStoredEvent](
		"messages",
		"MessageStored",
		"v1",
	)

	UserRegisteredV1 = helper.EventDefinition[UserRegisteredEvent](
		"auth",
		"UserRegistered",
		"v1",
	)
)

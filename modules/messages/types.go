package messages

import (
	domain "github.com/example/realtime-chat/domain/chat"
)

// AppendRequest represents an append-message request.
type AppendRequest struct {
	SenderID    string  `json:"sender_id"`
	RecipientID *string `json:"recipient_id"`
	Body        string  `json:"body"`
}

// AppendResponse carries the persisted message with its log-assigned id
// and timestamp.
type AppendResponse struct {
	Message domain.Message `json:"message"`
}

// RecentRequest represents a recent-messages request. ViewerID scopes the
// result to messages that user is allowed to see.
type RecentRequest struct {
	ViewerID string `json:"viewer_id"`
	Limit    int    `json:"limit"`
}

// RecentResponse represents a recent-messages response.
type RecentResponse struct {
	Messages []domain.Message `json:"messages"`
}

// ConversationRequest represents a conversation query between two users.
type ConversationRequest struct {
	UserA string `json:"user_a"`
	UserB string `json:"user_b"`
	Limit int    `json:"limit"`
}

// ConversationResponse represents a conversation query response.
type ConversationResponse struct {
	Messages []domain.Message `json:"messages"`
}

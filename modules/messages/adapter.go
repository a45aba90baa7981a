package messages

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// MessagePort is the interface other modules use to access the message log.
type MessagePort interface {
	Append(ctx context.Context, senderID string, recipientID *string, body string) (*domain.Message, error)
	Recent(ctx context.Context, viewerID string, limit int) ([]domain.Message, error)
	Between(ctx context.Context, userA, userB string, limit int) ([]domain.Message, error)
}

// MessageAdapter implements MessagePort using the service container.
type MessageAdapter struct {
	container mono.ServiceContainer
}

// NewMessageAdapter creates a new MessageAdapter.
func NewMessageAdapter(container mono.ServiceContainer) *MessageAdapter {
	return &MessageAdapter{
		container: container,
	}
}

// Append persists a message through the message log service.
func (a *MessageAdapter) Append(ctx context.Context, senderID string, recipientID *string, body string) (*domain.Message, error) {
	req := AppendRequest{SenderID: senderID, RecipientID: recipientID, Body: body}
	var resp AppendResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"append-message",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("append-message request failed: %w", err)
	}

	return &resp.Message, nil
}

// Recent returns the newest messages visible to the viewer in ascending
// order.
func (a *MessageAdapter) Recent(ctx context.Context, viewerID string, limit int) ([]domain.Message, error) {
	req := RecentRequest{ViewerID: viewerID, Limit: limit}
	var resp RecentResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"recent-messages",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("recent-messages request failed: %w", err)
	}

	return resp.Messages, nil
}

// Between returns the directed conversation between two users.
func (a *MessageAdapter) Between(ctx context.Context, userA, userB string, limit int) ([]domain.Message, error) {
	req := ConversationRequest{UserA: userA, UserB: userB, Limit: limit}
	var resp ConversationResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"conversation",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("conversation request failed: %w", err)
	}

	return resp.Messages, nil
}

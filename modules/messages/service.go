package messages

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Validation constants.
const (
	MaxBodyLength = 5000

	// DefaultHistoryLimit and MaxHistoryLimit bound history queries.
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 200
)

var (
	// ErrEmptyBody is returned when the message body is empty after trimming.
	ErrEmptyBody = errors.New("message body cannot be empty")
	// ErrBodyTooLong is returned when the body exceeds the maximum length.
	ErrBodyTooLong = errors.New("message body exceeds maximum length")
	// ErrBodyInvalid is returned when the body is not valid UTF-8.
	ErrBodyInvalid = errors.New("message body contains invalid characters")
)

// MessageService validates and records messages in the append-only log.
type MessageService struct {
	repo *MessageRepository
}

// NewMessageService creates a new MessageService.
func NewMessageService(repo *MessageRepository) *MessageService {
	return &MessageService{
		repo: repo,
	}
}

// Append validates the body and persists the message. recipientID is nil
// for broadcasts. The returned message carries the log-assigned id and
// timestamp.
func (s *MessageService) Append(_ context.Context, senderID string, recipientID *string, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len(body) > MaxBodyLength {
		return nil, ErrBodyTooLong
	}
	if !utf8.ValidString(body) {
		return nil, ErrBodyInvalid
	}

	msg := &domain.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}

	if err := s.repo.Append(msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// Recent returns the newest messages visible to the viewer in ascending
// order.
func (s *MessageService) Recent(_ context.Context, viewerID string, limit int) ([]domain.Message, error) {
	return s.repo.Recent(viewerID, clampLimit(limit))
}

// Between returns the directed conversation between two users in ascending
// order.
func (s *MessageService) Between(_ context.Context, userA, userB string, limit int) ([]domain.Message, error) {
	return s.repo.Between(userA, userB, clampLimit(limit))
}

// clampLimit normalizes a caller-supplied limit into 1..MaxHistoryLimit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

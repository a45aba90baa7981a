package messages

import (
	"errors"
	"fmt"

	domain "github.com/example/realtime-chat/domain/chat"
	"gorm.io/gorm"
)

var (
	// ErrUnknownSender is returned when the sender does not reference an
	// existing user.
	ErrUnknownSender = errors.New("unknown sender")
	// ErrUnknownRecipient is returned when a directed message targets a
	// user that does not exist.
	ErrUnknownRecipient = errors.New("unknown recipient")
)

// MessageRepository handles message persistence using GORM.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

// Append inserts a message inside a single transaction that also verifies
// the sender (and recipient, for directed messages) still exist. The
// storage layer assigns the next autoincrement id atomically with the
// commit, so ids are strictly increasing in commit order with no gaps or
// duplicates visible to readers.
func (r *MessageRepository) Append(msg *domain.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var sender domain.User
		if err := tx.First(&sender, "id = ?", msg.SenderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownSender
			}
			return fmt.Errorf("failed to look up sender: %w", err)
		}
		msg.SenderName = sender.Username

		if msg.RecipientID != nil {
			var count int64
			if err := tx.Model(&domain.User{}).Where("id = ?", *msg.RecipientID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to look up recipient: %w", err)
			}
			if count == 0 {
				return ErrUnknownRecipient
			}
		}

		return tx.Create(msg).Error
	})
}

// Recent returns the newest limit messages visible to viewerID in
// ascending id order. A message is visible when it is broadcast, addressed
// to the viewer, or sent by the viewer; directed messages between other
// users are never returned.
func (r *MessageRepository) Recent(viewerID string, limit int) ([]domain.Message, error) {
	var newest []domain.Message
	err := r.db.
		Where("recipient_id IS NULL OR recipient_id = ? OR sender_id = ?", viewerID, viewerID).
		Order("id DESC").
		Limit(limit).
		Find(&newest).Error
	if err != nil {
		return nil, err
	}

	// Fetched newest-first; reverse into ascending order.
	result := make([]domain.Message, len(newest))
	for i, msg := range newest {
		result[len(newest)-1-i] = msg
	}
	return result, nil
}

// Between returns the newest limit directed messages exchanged between the
// two users, in ascending id order. The result is identical regardless of
// argument order.
func (r *MessageRepository) Between(userA, userB string, limit int) ([]domain.Message, error) {
	var newest []domain.Message
	err := r.db.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("id DESC").
		Limit(limit).
		Find(&newest).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.Message, len(newest))
	for i, msg := range newest {
		result[len(newest)-1-i] = msg
	}
	return result, nil
}

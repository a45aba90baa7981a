package chat

import "time"

// User represents a registered account. Passwords are stored only as
// bcrypt hashes; there is no delete path.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Username     string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Message is an immutable chat message. The ID is assigned by the
// storage layer at insert time and is strictly increasing, which defines
// both delivery and history order. A nil RecipientID means broadcast.
type Message struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID    string  `gorm:"index;not null;type:text" json:"sender_id"`
	SenderName  string  `gorm:"not null;type:text" json:"sender_name"`
	RecipientID *string `gorm:"index;type:text" json:"recipient_id"`
	Body        string  `gorm:"not null;type:text" json:"body"`
	CreatedAt   time.Time `json:"timestamp"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}

// IsBroadcast reports whether the message is addressed to all users.
func (m *Message) IsBroadcast() bool {
	return m.RecipientID == nil
}

// TokenPair represents access and refresh tokens issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims is the identity extracted from a validated access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

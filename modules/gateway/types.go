package gateway

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the REST error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RegisterRequest is the REST registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the REST login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the REST token refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the REST logout request body.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the REST representation of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is the REST token pair response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// WebSocket logical event types.
const (
	WSTypeAuthenticate  = "authenticate"
	WSTypeAuthenticated = "authenticated"
	WSTypeSendMessage   = "send_message"
	WSTypeNewMessage    = "new_message"
	WSTypeError         = "error"
)

// Error kinds carried in error frames. invalid_token is fatal: the server
// closes the connection after sending it.
const (
	ErrKindInvalidToken     = "invalid_token"
	ErrKindInvalidFrame     = "invalid_frame"
	ErrKindEmptyBody        = "empty_body"
	ErrKindInvalidBody      = "invalid_body"
	ErrKindUnknownRecipient = "unknown_recipient"
	ErrKindStorageError     = "storage_error"
)

// WSFrame is the JSON envelope for every WebSocket message in either
// direction.
type WSFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AuthenticatePayload is the client payload for the authenticate event.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// AuthenticatedPayload acknowledges a successful authenticate event.
type AuthenticatedPayload struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	ConnectionID string `json:"connection_id"`
}

// SendMessagePayload is the client payload for the send_message event.
// RecipientID is omitted for broadcasts. The sender is never taken from
// the payload; it comes from the authenticated connection.
type SendMessagePayload struct {
	Body        string  `json:"body"`
	RecipientID *string `json:"recipient_id,omitempty"`
}

// ErrorPayload is the server payload for error frames.
type ErrorPayload struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/messages"
	"github.com/example/realtime-chat/modules/presence"
)

var (
	errAuthTimeout   = errors.New("no authenticate event received")
	errAuthExpected  = errors.New("first event must be authenticate")
	errTokenRejected = errors.New("access token rejected")
)

const (
	// authWait bounds how long a fresh connection may sit unauthenticated.
	authWait = 10 * time.Second
	// pongWait is the read deadline; refreshed by pongs and inbound frames.
	pongWait = 60 * time.Second

	maxFrameSize = 8 * 1024
)

// WSHandlers carries the WebSocket connection lifecycle: authenticate,
// register with presence, pump inbound send_message events into the
// message log, unregister on disconnect.
type WSHandlers struct {
	registry       *presence.Registry
	authAdapter    auth.AuthPort
	messageAdapter messages.MessagePort
	logger         *slog.Logger
}

// NewWSHandlers creates a new WSHandlers instance.
func NewWSHandlers(registry *presence.Registry, authAdapter auth.AuthPort, messageAdapter messages.MessagePort) *WSHandlers {
	return &WSHandlers{
		registry:       registry,
		authAdapter:    authAdapter,
		messageAdapter: messageAdapter,
		logger:         slog.Default(),
	}
}

// HandleConnection runs one connection from handshake to disconnect. The
// sender identity used for every message is the one bound here at
// authentication time; client-supplied ids in later frames are ignored.
func (h *WSHandlers) HandleConnection(c *websocket.Conn) {
	c.SetReadLimit(maxFrameSize)

	claims, err := h.awaitAuthenticate(c)
	if err != nil {
		// Pre-registration, so writing directly on the conn is safe.
		h.writeError(c, ErrKindInvalidToken, err.Error())
		c.Close()
		return
	}

	handle := uuid.New().String()
	client := presence.NewClient(handle, claims.UserID, claims.Username, c)
	h.registry.Register(client)
	defer h.registry.Unregister(handle)

	h.logger.Info("WebSocket authenticated",
		"connection", handle, "userID", claims.UserID, "username", claims.Username)

	ack, _ := json.Marshal(wsFrame(WSTypeAuthenticated, AuthenticatedPayload{
		UserID:       claims.UserID,
		Username:     claims.Username,
		ConnectionID: handle,
	}))
	if err := client.Send(ack); err != nil {
		return
	}

	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		client.Touch()
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	// One reader per connection: frames are handled sequentially, so a
	// single sender's messages reach the log in the order they were sent.
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket error", "connection", handle, "error", err)
			}
			break
		}

		client.Touch()
		c.SetReadDeadline(time.Now().Add(pongWait))

		var frame WSFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.sendError(client, ErrKindInvalidFrame, "malformed frame")
			continue
		}

		switch frame.Type {
		case WSTypeSendMessage:
			h.handleSendMessage(client, frame.Payload)
		case WSTypeAuthenticate:
			// Already authenticated; identity is fixed for the
			// connection's lifetime.
			h.sendError(client, ErrKindInvalidFrame, "connection already authenticated")
		default:
			h.sendError(client, ErrKindInvalidFrame, "unknown event type: "+frame.Type)
		}
	}

	h.logger.Info("WebSocket disconnected", "connection", handle, "userID", claims.UserID)
}

// awaitAuthenticate reads the first frame, which must be an authenticate
// event carrying a valid access token, within authWait.
func (h *WSHandlers) awaitAuthenticate(c *websocket.Conn) (*domain.Claims, error) {
	c.SetReadDeadline(time.Now().Add(authWait))

	_, raw, err := c.ReadMessage()
	if err != nil {
		return nil, errAuthTimeout
	}

	var frame WSFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != WSTypeAuthenticate {
		return nil, errAuthExpected
	}

	var payload AuthenticatePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.Token == "" {
		return nil, errAuthExpected
	}

	claims, err := h.authAdapter.ValidateToken(context.Background(), payload.Token)
	if err != nil {
		return nil, errTokenRejected
	}

	return claims, nil
}

// handleSendMessage validates and persists an inbound message. Delivery to
// recipients happens downstream of persistence, driven by the MessageStored
// event, so a push failure can never lose a stored message. Failures here
// are surfaced to the sender connection only.
func (h *WSHandlers) handleSendMessage(client *presence.Client, payload json.RawMessage) {
	var req SendMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(client, ErrKindInvalidFrame, "malformed send_message payload")
		return
	}

	_, err := h.messageAdapter.Append(context.Background(), client.UserID, req.RecipientID, req.Body)
	if err == nil {
		return
	}

	// Typed errors do not survive the service container boundary; match
	// the known messages.
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "body cannot be empty"):
		h.sendError(client, ErrKindEmptyBody, "message body cannot be empty")
	case strings.Contains(errStr, "exceeds maximum length"):
		h.sendError(client, ErrKindInvalidBody, "message body exceeds maximum length")
	case strings.Contains(errStr, "invalid characters"):
		h.sendError(client, ErrKindInvalidBody, "message body contains invalid characters")
	case strings.Contains(errStr, "unknown recipient"):
		h.sendError(client, ErrKindUnknownRecipient, "recipient does not exist")
	default:
		h.logger.Error("Message append failed", "connection", client.Handle, "error", err)
		h.sendError(client, ErrKindStorageError, "message could not be stored, try again")
	}
}

// sendError queues an error frame on the client's outbound channel so it
// stays ordered with in-flight deliveries.
func (h *WSHandlers) sendError(client *presence.Client, kind, detail string) {
	data, err := json.Marshal(wsFrame(WSTypeError, ErrorPayload{Kind: kind, Detail: detail}))
	if err != nil {
		return
	}
	if err := client.Send(data); err != nil {
		h.logger.Error("Failed to queue error frame", "connection", client.Handle, "error", err)
	}
}

// writeError writes an error frame directly on the connection. Only valid
// before the client is registered and the write pump owns the conn.
func (h *WSHandlers) writeError(c *websocket.Conn, kind, detail string) {
	data, err := json.Marshal(wsFrame(WSTypeError, ErrorPayload{Kind: kind, Detail: detail}))
	if err != nil {
		return
	}
	c.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_ = c.WriteMessage(websocket.TextMessage, data)
}

// wsFrame builds a typed frame with a marshaled payload.
func wsFrame(frameType string, payload any) WSFrame {
	data, _ := json.Marshal(payload)
	return WSFrame{Type: frameType, Payload: data}
}

package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MessagesModule provides the append-only message log.
type MessagesModule struct {
	db       *gorm.DB
	service  *MessageService
	eventBus mono.EventBus
	dbPath   string
}

// Compile-time interface checks.
var _ mono.Module = (*MessagesModule)(nil)
var _ mono.ServiceProviderModule = (*MessagesModule)(nil)
var _ mono.EventBusAwareModule = (*MessagesModule)(nil)
var _ mono.EventEmitterModule = (*MessagesModule)(nil)
var _ mono.HealthCheckableModule = (*MessagesModule)(nil)

// NewModule creates a new MessagesModule.
func NewModule() *MessagesModule {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = "chat.db"
	}
	return &MessagesModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *MessagesModule) Name() string {
	return "messages"
}

// SetEventBus receives the EventBus from the framework.
func (m *MessagesModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *MessagesModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageStoredV1.ToBase(),
	}
}

// sqliteDSN appends pragmas so writers sharing the database file with the
// other modules wait out routine lock contention instead of failing with
// an immediate "database is locked" error.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Start opens the database and wires the message service. A storage
// initialization failure aborts application startup.
func (m *MessagesModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(m.dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewMessageService(NewMessageRepository(db))

	log.Printf("[messages] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *MessagesModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[messages] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *MessagesModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *MessagesModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"append-message",
		json.Unmarshal,
		json.Marshal,
		m.handleAppend,
	); err != nil {
		return fmt.Errorf("failed to register append-message service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"recent-messages",
		json.Unmarshal,
		json.Marshal,
		m.handleRecent,
	); err != nil {
		return fmt.Errorf("failed to register recent-messages service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"conversation",
		json.Unmarshal,
		json.Marshal,
		m.handleConversation,
	); err != nil {
		return fmt.Errorf("failed to register conversation service: %w", err)
	}

	log.Printf("[messages] Registered services: append-message, recent-messages, conversation")
	return nil
}

// handleAppend persists a message and, on success, publishes MessageStored
// so the delivery module can push it to live connections. Publish order
// follows append order for a given caller, which preserves the per-sender
// ordering guarantee end to end.
func (m *MessagesModule) handleAppend(ctx context.Context, req AppendRequest, _ *mono.Msg) (AppendResponse, error) {
	msg, err := m.service.Append(ctx, req.SenderID, req.RecipientID, req.Body)
	if err != nil {
		return AppendResponse{}, err
	}

	event := events.MessageStoredEvent{
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		SenderName:  msg.SenderName,
		RecipientID: msg.RecipientID,
		Body:        msg.Body,
		Timestamp:   msg.CreatedAt,
	}
	if err := events.MessageStoredV1.Publish(m.eventBus, event, nil); err != nil {
		// The message is durable; only live fan-out is affected.
		log.Printf("[messages] Failed to publish MessageStored event for message %d: %v", msg.ID, err)
	}

	return AppendResponse{Message: *msg}, nil
}

func (m *MessagesModule) handleRecent(ctx context.Context, req RecentRequest, _ *mono.Msg) (RecentResponse, error) {
	msgs, err := m.service.Recent(ctx, req.ViewerID, req.Limit)
	if err != nil {
		return RecentResponse{}, err
	}
	return RecentResponse{Messages: msgs}, nil
}

func (m *MessagesModule) handleConversation(ctx context.Context, req ConversationRequest, _ *mono.Msg) (ConversationResponse, error) {
	msgs, err := m.service.Between(ctx, req.UserA, req.UserB, req.Limit)
	if err != nil {
		return ConversationResponse{}, err
	}
	return ConversationResponse{Messages: msgs}, nil
}

package delivery

import (
	"context"
	"fmt"
	"log"

	"github.com/example/realtime-chat/events"
	"github.com/example/realtime-chat/modules/presence"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// DeliveryModule consumes MessageStored events and routes each message to
// the live connections resolved through the presence registry.
type DeliveryModule struct {
	router *Router
}

// Compile-time interface checks.
var _ mono.Module = (*DeliveryModule)(nil)
var _ mono.EventConsumerModule = (*DeliveryModule)(nil)

// NewModule creates a new DeliveryModule.
func NewModule() *DeliveryModule {
	return &DeliveryModule{}
}

// Name returns the module name.
func (m *DeliveryModule) Name() string {
	return "delivery"
}

// SetRegistry injects the presence registry. Must be called before the
// application starts.
func (m *DeliveryModule) SetRegistry(registry *presence.Registry) {
	m.router = NewRouter(registry)
}

// Start checks the module has been wired.
func (m *DeliveryModule) Start(_ context.Context) error {
	if m.router == nil {
		return fmt.Errorf("presence registry not set")
	}
	log.Println("[delivery] Module started - message router running")
	return nil
}

// Stop shuts down the module.
func (m *DeliveryModule) Stop(_ context.Context) error {
	log.Println("[delivery] Module stopped")
	return nil
}

// RegisterEventConsumers subscribes to MessageStored events.
func (m *DeliveryModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageStoredV1, m.handleMessageStored, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageStored consumer: %w", err)
	}

	log.Println("[delivery] Registered event consumers: MessageStored")
	return nil
}

func (m *DeliveryModule) handleMessageStored(_ context.Context, event events.MessageStoredEvent, _ *mono.Msg) error {
	delivered := m.router.Route(event)
	log.Printf("[delivery] Message %d routed to %d connections", event.MessageID, delivered)
	return nil
}

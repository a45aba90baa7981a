package gateway

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/messages"
	"github.com/example/realtime-chat/modules/presence"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// GatewayModule is the transport boundary: the Fiber HTTP server for the
// auxiliary request/response operations and the WebSocket endpoint for the
// persistent bidirectional channel.
type GatewayModule struct {
	app  *fiber.App
	port string

	registry          *presence.Registry
	authContainer     mono.ServiceContainer
	messagesContainer mono.ServiceContainer
	authAdapter       auth.AuthPort
	messageAdapter    messages.MessagePort
}

// Compile-time interface checks.
var _ mono.Module = (*GatewayModule)(nil)
var _ mono.DependentModule = (*GatewayModule)(nil)
var _ mono.HealthCheckableModule = (*GatewayModule)(nil)

// NewModule creates a new GatewayModule.
func NewModule() *GatewayModule {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &GatewayModule{
		port: port,
	}
}

// Name returns the module name.
func (m *GatewayModule) Name() string {
	return "gateway"
}

// Dependencies returns the list of module dependencies.
func (m *GatewayModule) Dependencies() []string {
	return []string{"auth", "messages"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *GatewayModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authAdapter = auth.NewAuthAdapter(container)
	case "messages":
		m.messagesContainer = container
		m.messageAdapter = messages.NewMessageAdapter(container)
	}
}

// SetRegistry injects the presence registry. Must be called before the
// application starts.
func (m *GatewayModule) SetRegistry(registry *presence.Registry) {
	m.registry = registry
}

// Start initializes the Fiber HTTP server.
func (m *GatewayModule) Start(_ context.Context) error {
	if m.authContainer == nil || m.messagesContainer == nil {
		return fmt.Errorf("auth or messages dependency not set")
	}
	if m.registry == nil {
		return fmt.Errorf("presence registry not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[gateway] HTTP server error: %v", err)
		}
	}()

	log.Printf("[gateway] HTTP server started on :%s", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *GatewayModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[gateway] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *GatewayModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// setupRoutes configures the REST routes and the WebSocket endpoint.
func (m *GatewayModule) setupRoutes() {
	handlers := NewHandlers(m.authContainer, m.authAdapter, m.messageAdapter)
	wsHandlers := NewWSHandlers(m.registry, m.authAdapter, m.messageAdapter)

	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "gateway",
		})
	})

	v1 := m.app.Group("/api/v1")

	// Public auth routes
	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Post("/refresh", handlers.Refresh)
	authRoutes.Post("/logout", handlers.Logout)

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.authAdapter))
	protected.Get("/profile", handlers.Profile)
	protected.Get("/messages/history", handlers.History)
	protected.Get("/messages/conversation/:user_id", handlers.Conversation)

	// WebSocket endpoint; token is presented in the first frame, not the URL
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(wsHandlers.HandleConnection))
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/delivery"
	"github.com/example/realtime-chat/modules/gateway"
	"github.com/example/realtime-chat/modules/messages"
	"github.com/example/realtime-chat/modules/presence"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Realtime Chat Service ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule()
	messagesModule := messages.NewModule()
	presenceModule := presence.NewModule()
	deliveryModule := delivery.NewModule()
	gatewayModule := gateway.NewModule()

	// Inject the connection registry into the modules that register and
	// route connections. (Done manually because the registry is not
	// exposed via ServiceContainer.)
	deliveryModule.SetRegistry(presenceModule.Registry())
	gatewayModule.SetRegistry(presenceModule.Registry())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth: credential store + session tokens (ServiceProviderModule)
	// - messages: append-only message log (ServiceProviderModule + EventEmitterModule)
	// - presence: connection registry + liveness sweep
	// - delivery: routes stored messages to live connections (EventConsumerModule)
	// - gateway: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(authModule)
	app.Register(messagesModule)
	app.Register(presenceModule)
	app.Register(deliveryModule)
	app.Register(gatewayModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Println("  - Storage: SQLite via GORM (users, messages)")
	log.Println("")
	log.Println("Message flow:")
	log.Println("  send_message -> messages module (persist) -> MessageStored event")
	log.Println("  -> delivery module -> live connections via presence registry")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                                  - Health check")
	log.Println("  POST   /api/v1/auth/register                    - Register a new user")
	log.Println("  POST   /api/v1/auth/login                       - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh                     - Refresh access token")
	log.Println("  POST   /api/v1/auth/logout                      - Revoke refresh token")
	log.Println("  GET    /api/v1/profile                          - Current user (Bearer)")
	log.Println("  GET    /api/v1/messages/history                 - Recent messages (Bearer)")
	log.Println("  GET    /api/v1/messages/conversation/:user_id   - Direct messages (Bearer)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  First frame: {\"type\":\"authenticate\",\"payload\":{\"token\":\"<access token>\"}}")
	log.Println("  Then: {\"type\":\"send_message\",\"payload\":{\"body\":\"...\",\"recipient_id\":\"...\"}}")
	log.Println("  Omit recipient_id to broadcast to all connected users")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

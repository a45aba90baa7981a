package presence

import (
	"context"
	"log"
	"time"

	"github.com/go-monolith/mono"
)

// staleAfter is the idle window after which a handle is considered dead.
// It is a multiple of the client ping period, so only connections that
// missed several pongs are reclaimed.
const (
	staleAfter    = 90 * time.Second
	pruneInterval = 30 * time.Second
)

// PresenceModule owns the connection registry and runs the liveness sweep.
type PresenceModule struct {
	registry *Registry
	cancel   context.CancelFunc
	done     chan struct{}
}

// Compile-time interface checks.
var _ mono.Module = (*PresenceModule)(nil)
var _ mono.HealthCheckableModule = (*PresenceModule)(nil)

// NewModule creates a new PresenceModule.
func NewModule() *PresenceModule {
	return &PresenceModule{
		registry: NewRegistry(),
		done:     make(chan struct{}),
	}
}

// Name returns the module name.
func (m *PresenceModule) Name() string {
	return "presence"
}

// Registry returns the connection registry for injection into the modules
// that route and register connections.
func (m *PresenceModule) Registry() *Registry {
	return m.registry
}

// Start launches the stale-connection sweep.
func (m *PresenceModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.registry.PruneStale(staleAfter); n > 0 {
					log.Printf("[presence] Reclaimed %d stale connections", n)
				}
			}
		}
	}()

	log.Println("[presence] Module started - connection registry running")
	return nil
}

// Stop halts the sweep and closes all connections.
func (m *PresenceModule) Stop(_ context.Context) error {
	count := m.registry.Count()
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	m.registry.CloseAll()
	log.Printf("[presence] Module stopped - %d connections were live", count)
	return nil
}

// Health returns the health status of the module.
func (m *PresenceModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections": m.registry.Count(),
			"users":       m.registry.UserCount(),
		},
	}
}

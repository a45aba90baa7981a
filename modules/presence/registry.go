package presence

import (
	"hash/fnv"
	"log"
	"sync"
	"time"
)

// shardCount sizes the per-user index. Connection churn for unrelated
// users lands on different shards, so there is no single global lock
// around the whole registry.
const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	users map[string]map[string]*Client // userID -> handle -> client
}

// Registry tracks which users currently have live connections and through
// which handles. It is an explicitly owned, lifecycle-scoped object: the
// delivery router receives it by reference, never via package globals.
type Registry struct {
	shards  [shardCount]*shard
	clients sync.Map // handle -> *Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{users: make(map[string]map[string]*Client)}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return r.shards[h.Sum32()%shardCount]
}

// Register adds a client and starts its write pump. Registering the same
// handle twice is a no-op.
func (r *Registry) Register(c *Client) {
	if _, loaded := r.clients.LoadOrStore(c.Handle, c); loaded {
		return
	}

	s := r.shardFor(c.UserID)
	s.mu.Lock()
	if s.users[c.UserID] == nil {
		s.users[c.UserID] = make(map[string]*Client)
	}
	s.users[c.UserID][c.Handle] = c
	s.mu.Unlock()

	go c.writePump()
	log.Printf("[presence] Connection %s registered for user %s", c.Handle, c.Username)
}

// Unregister removes a handle and closes its client. It is idempotent and
// never touches the user's other handles.
func (r *Registry) Unregister(handle string) {
	v, loaded := r.clients.LoadAndDelete(handle)
	if !loaded {
		return
	}
	c := v.(*Client)

	s := r.shardFor(c.UserID)
	s.mu.Lock()
	if handles := s.users[c.UserID]; handles != nil {
		delete(handles, handle)
		if len(handles) == 0 {
			delete(s.users, c.UserID)
		}
	}
	s.mu.Unlock()

	c.Close()
	log.Printf("[presence] Connection %s unregistered for user %s", handle, c.Username)
}

// ConnectionsFor returns the live connections for a user, possibly empty.
func (r *Registry) ConnectionsFor(userID string) []*Client {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	handles := s.users[userID]
	if len(handles) == 0 {
		return nil
	}
	clients := make([]*Client, 0, len(handles))
	for _, c := range handles {
		clients = append(clients, c)
	}
	return clients
}

// AllClients returns every live connection across all users.
func (r *Registry) AllClients() []*Client {
	var clients []*Client
	for _, s := range r.shards {
		s.mu.RLock()
		for _, handles := range s.users {
			for _, c := range handles {
				clients = append(clients, c)
			}
		}
		s.mu.RUnlock()
	}
	return clients
}

// Get returns the client for a handle, if registered.
func (r *Registry) Get(handle string) (*Client, bool) {
	v, ok := r.clients.Load(handle)
	if !ok {
		return nil, false
	}
	return v.(*Client), true
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	n := 0
	r.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// UserCount returns the number of distinct users with at least one
// connection.
func (r *Registry) UserCount() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.users)
		s.mu.RUnlock()
	}
	return n
}

// PruneStale unregisters handles with no activity within maxIdle. This
// reclaims connections whose disconnect event was lost (abrupt network
// drop with no close frame). Returns the number of handles reclaimed.
func (r *Registry) PruneStale(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	var stale []string

	r.clients.Range(func(key, value any) bool {
		if value.(*Client).IdleSince().Before(cutoff) {
			stale = append(stale, key.(string))
		}
		return true
	})

	for _, handle := range stale {
		log.Printf("[presence] Reclaiming stale connection %s", handle)
		r.Unregister(handle)
	}
	return len(stale)
}

// CloseAll unregisters and closes every connection. Used at shutdown.
func (r *Registry) CloseAll() {
	r.clients.Range(func(key, _ any) bool {
		r.Unregister(key.(string))
		return true
	})
}

package auth

import (
	"sync"
	"time"
)

// RevocationList tracks revoked token IDs (jti claims) until the tokens
// would have expired on their own. Entries for expired tokens are pruned
// lazily on each write, so the list stays bounded by the number of live
// revocations.
type RevocationList struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> token expiry
}

// NewRevocationList creates an empty revocation list.
func NewRevocationList() *RevocationList {
	return &RevocationList{
		entries: make(map[string]time.Time),
	}
}

// Revoke marks the token ID as revoked until expiresAt.
func (l *RevocationList) Revoke(jti string, expiresAt time.Time) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, exp := range l.entries {
		if exp.Before(now) {
			delete(l.entries, id)
		}
	}
	l.entries[jti] = expiresAt
}

// IsRevoked reports whether the token ID has been revoked and the token
// has not yet expired.
func (l *RevocationList) IsRevoked(jti string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	exp, ok := l.entries[jti]
	return ok && exp.After(time.Now())
}

// Len returns the number of tracked revocations, including entries not
// yet pruned.
func (l *RevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

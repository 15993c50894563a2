package google

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSURL is where Google publishes its ID-token signing keys
const DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// JWKSManager fetches and caches Google's signing keys
type JWKSManager struct {
	url     string
	ttl     time.Duration
	mu      sync.RWMutex
	keys    jwk.Set
	expires time.Time
}

// NewJWKSManager creates a manager for the given JWKS URL. An empty URL uses
// the Google default.
func NewJWKSManager(url string) *JWKSManager {
	if url == "" {
		url = DefaultJWKSURL
	}
	return &JWKSManager{
		url: url,
		ttl: 1 * time.Hour,
	}
}

// Keys returns the cached key set, refetching it when the cache expires
func (m *JWKSManager) Keys(ctx context.Context) (jwk.Set, error) {
	m.mu.RLock()
	if m.keys != nil && time.Now().Before(m.expires) {
		keys := m.keys
		m.mu.RUnlock()
		return keys, nil
	}
	m.mu.RUnlock()

	keys, err := jwk.Fetch(ctx, m.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.keys = keys
	m.expires = time.Now().Add(m.ttl)
	m.mu.Unlock()

	return keys, nil
}

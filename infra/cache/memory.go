// Package cache provides credential caches for provider adapters, so a
// burst of charges does not re-run the OAuth handshake per request.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/andrevalim/pixhub/pkg/provider"
)

// DefaultRefreshLead renews a token this long before its actual expiry,
// so in-flight calls never race the expiration.
const DefaultRefreshLead = 30 * time.Second

// MemoryCredentials caches credentials per adapter slug in process
// memory.
type MemoryCredentials struct {
	mu     sync.Mutex
	creds  map[string]provider.Credentials
	lead   time.Duration
	logger *slog.Logger
}

// NewMemoryCredentials creates an in-memory credential cache.
func NewMemoryCredentials(logger *slog.Logger) *MemoryCredentials {
	return &MemoryCredentials{
		creds:  make(map[string]provider.Credentials),
		lead:   DefaultRefreshLead,
		logger: logger.With("cache", "credentials"),
	}
}

// Credentials returns a cached token while it is fresh, authenticating
// otherwise. The lock spans the refresh so concurrent callers trigger a
// single handshake.
func (c *MemoryCredentials) Credentials(ctx context.Context, a provider.Adapter) (provider.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if creds, ok := c.creds[a.Slug()]; ok && !creds.Expired(c.lead) {
		return creds, nil
	}

	creds, err := a.Authenticate(ctx)
	if err != nil {
		return provider.Credentials{}, err
	}
	c.creds[a.Slug()] = creds
	c.logger.Info("credentials refreshed", "provider", a.Slug(), "expires_at", creds.ExpiresAt)
	return creds, nil
}

// Invalidate drops the cached token for the slug.
func (c *MemoryCredentials) Invalidate(_ context.Context, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.creds, slug)
	c.logger.Info("credentials invalidated", "provider", slug)
}

var _ provider.CredentialSource = (*MemoryCredentials)(nil)

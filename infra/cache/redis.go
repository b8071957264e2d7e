package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/redis/go-redis/v9"
)

// RedisCredentials caches credentials in Redis so replicas share one
// token per acquirer. Cache failures degrade to a direct handshake;
// payments never fail because the cache is down.
type RedisCredentials struct {
	client *redis.Client
	prefix string
	lead   time.Duration
	logger *slog.Logger
}

// NewRedisCredentials creates a Redis-backed credential cache.
func NewRedisCredentials(opt *redis.Options, prefix string, logger *slog.Logger) *RedisCredentials {
	return &RedisCredentials{
		client: redis.NewClient(opt),
		prefix: prefix,
		lead:   DefaultRefreshLead,
		logger: logger.With("cache", "credentials-redis"),
	}
}

func (c *RedisCredentials) key(slug string) string {
	return c.prefix + "creds:" + slug
}

// Credentials returns the shared token while it is fresh, authenticating
// and re-publishing otherwise.
func (c *RedisCredentials) Credentials(ctx context.Context, a provider.Adapter) (provider.Credentials, error) {
	slug := a.Slug()
	val, err := c.client.Get(ctx, c.key(slug)).Result()
	switch {
	case err == nil:
		var creds provider.Credentials
		if jsonErr := json.Unmarshal([]byte(val), &creds); jsonErr != nil {
			c.logger.Error("cached credentials unreadable", "provider", slug, "error", jsonErr)
		} else if !creds.Expired(c.lead) {
			return creds, nil
		}
	case errors.Is(err, redis.Nil):
		c.logger.Debug("credential cache miss", "provider", slug)
	default:
		c.logger.Error("credential cache get failed", "provider", slug, "error", err)
	}

	creds, err := a.Authenticate(ctx)
	if err != nil {
		return provider.Credentials{}, err
	}

	ttl := time.Until(creds.ExpiresAt) - c.lead
	if ttl > 0 {
		data, jsonErr := json.Marshal(creds)
		if jsonErr == nil {
			if setErr := c.client.Set(ctx, c.key(slug), data, ttl).Err(); setErr != nil {
				c.logger.Error("credential cache set failed", "provider", slug, "error", setErr)
			}
		}
	}

	c.logger.Info("credentials refreshed", "provider", slug, "expires_at", creds.ExpiresAt)
	return creds, nil
}

// Invalidate drops the shared token for the slug.
func (c *RedisCredentials) Invalidate(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, c.key(slug)).Err(); err != nil {
		c.logger.Error("credential cache delete failed", "provider", slug, "error", err)
	}
	c.logger.Info("credentials invalidated", "provider", slug)
}

var _ provider.CredentialSource = (*RedisCredentials)(nil)

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedLookup wraps a Lookup with a Redis cache. Registry data changes
// rarely and upstream calls are metered, so hits are served from cache for
// the configured TTL. Cache failures fall through to the upstream.
type CachedLookup struct {
	next   Lookup
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLookup wraps next with a Redis cache using the given TTL.
func NewCachedLookup(next Lookup, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	return &CachedLookup{next: next, redis: client, ttl: ttl, logger: logger}
}

func cacheKey(jurisdiction, registrationNumber string) string {
	return fmt.Sprintf("vouch:registry:%s:%s", jurisdiction, registrationNumber)
}

// Lookup serves from cache when possible, falling back to the wrapped lookup.
func (c *CachedLookup) Lookup(ctx context.Context, jurisdiction, registrationNumber string) (*CompanyRecord, error) {
	key := cacheKey(jurisdiction, registrationNumber)

	raw, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var record CompanyRecord
		if unmarshalErr := json.Unmarshal(raw, &record); unmarshalErr == nil {
			return &record, nil
		}
		// Corrupt entry: drop it and refetch.
		c.redis.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "registry cache read failed", "error", err)
	}

	record, err := c.next.Lookup(ctx, jurisdiction, registrationNumber)
	if err != nil {
		return nil, err
	}

	if raw, marshalErr := json.Marshal(record); marshalErr == nil {
		if setErr := c.redis.Set(ctx, key, raw, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "registry cache write failed", "error", setErr)
		}
	}
	return record, nil
}

// Invalidate removes a cached record, forcing the next lookup upstream.
func (c *CachedLookup) Invalidate(ctx context.Context, jurisdiction, registrationNumber string) error {
	if err := c.redis.Del(ctx, cacheKey(jurisdiction, registrationNumber)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate registry cache: %w", err)
	}
	return nil
}

var _ Lookup = (*CachedLookup)(nil)

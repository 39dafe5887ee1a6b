package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/redis"
)

// Store is the read-through cache in front of repository reads. It is
// never authoritative: every failure degrades to a miss and every
// write error is swallowed after logging.
type Store interface {
	// GetJSON loads the cached value at key into dest. It returns
	// false on a miss or any redis failure.
	GetJSON(ctx context.Context, key string, dest any) bool
	// SetJSON stores value at key with the configured TTL.
	SetJSON(ctx context.Context, key string, value any)
	// Invalidate removes specific keys.
	Invalidate(ctx context.Context, keys ...string)
	// InvalidatePattern removes every key matching the glob pattern.
	InvalidatePattern(ctx context.Context, pattern string)
	// Key builds a namespaced cache key from its parts.
	Key(parts ...string) string
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPattern(ctx context.Context, pattern string) (int64, error)
	CacheKey(parts ...string) string
}

type store struct {
	redis redisStore
	ttl   time.Duration
	logg  *logger.Logger
}

// DefaultTTL bounds how stale a cached read can get when config does
// not override it.
const DefaultTTL = 30 * time.Second

// New builds a cache store over the shared redis client.
func New(client *redis.Client, ttl time.Duration, logg *logger.Logger) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &store{redis: client, ttl: ttl, logg: logg}, nil
}

func (s *store) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, err := s.redis.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache read failed: "+err.Error())
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache payload corrupt: "+err.Error())
		s.Invalidate(ctx, key)
		return false
	}
	return true
}

func (s *store) SetJSON(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache marshal failed: "+err.Error())
		return
	}
	if err := s.redis.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache write failed: "+err.Error())
	}
}

func (s *store) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.redis.Del(ctx, keys...); err != nil {
		s.logg.Warn(ctx, "cache invalidation failed: "+err.Error())
	}
}

func (s *store) InvalidatePattern(ctx context.Context, pattern string) {
	if _, err := s.redis.DelPattern(ctx, pattern); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_pattern", pattern), "cache pattern invalidation failed: "+err.Error())
	}
}

func (s *store) Key(parts ...string) string {
	return s.redis.CacheKey(parts...)
}

package cache

import (
	"bytes"
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/mealdash/mealdash-backend/pkg/logger"
)

type stubRedis struct {
	data    map[string]string
	getErr  error
	setErr  error
	deleted []string
}

func newStubRedis() *stubRedis {
	return &stubRedis{data: make(map[string]string)}
}

var errNotFound = errors.New("redis: nil")

func (s *stubRedis) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return "", errNotFound
	}
	return v, nil
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value.(string)
	return nil
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubRedis) DelPattern(ctx context.Context, pattern string) (int64, error) {
	var removed int64
	for key := range s.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.data, key)
			s.deleted = append(s.deleted, key)
			removed++
		}
	}
	return removed, nil
}

func (s *stubRedis) CacheKey(parts ...string) string {
	key := "md:cache"
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

func newTestStore(redis *stubRedis) *store {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: &bytes.Buffer{}})
	return &store{redis: redis, ttl: time.Minute, logg: logg}
}

type cachedOrder struct {
	Code  string `json:"code"`
	Total string `json:"total"`
}

func TestSetGetRoundTrip(t *testing.T) {
	redis := newStubRedis()
	s := newTestStore(redis)
	ctx := context.Background()

	key := s.Key("order", "abc", "detail")
	s.SetJSON(ctx, key, cachedOrder{Code: "R1-7", Total: "28.00"})

	var got cachedOrder
	if !s.GetJSON(ctx, key, &got) {
		t.Fatal("expected cache hit")
	}
	if got.Code != "R1-7" || got.Total != "28.00" {
		t.Fatalf("unexpected cached value %+v", got)
	}
}

func TestGetMissAndRedisFailureDegrade(t *testing.T) {
	redis := newStubRedis()
	s := newTestStore(redis)
	ctx := context.Background()

	var got cachedOrder
	if s.GetJSON(ctx, s.Key("order", "missing"), &got) {
		t.Fatal("expected miss")
	}

	redis.getErr = errors.New("connection refused")
	if s.GetJSON(ctx, s.Key("order", "abc"), &got) {
		t.Fatal("redis failure must read as a miss")
	}

	// Write failures are swallowed.
	redis.setErr = errors.New("connection refused")
	s.SetJSON(ctx, s.Key("order", "abc"), cachedOrder{})
}

func TestCorruptPayloadEvicted(t *testing.T) {
	redis := newStubRedis()
	s := newTestStore(redis)
	ctx := context.Background()

	key := s.Key("order", "abc")
	redis.data[key] = "{not json"

	var got cachedOrder
	if s.GetJSON(ctx, key, &got) {
		t.Fatal("corrupt payload should miss")
	}
	if _, ok := redis.data[key]; ok {
		t.Fatal("corrupt payload should be evicted")
	}
}

func TestInvalidatePattern(t *testing.T) {
	redis := newStubRedis()
	s := newTestStore(redis)
	ctx := context.Background()

	s.SetJSON(ctx, s.Key("restaurant", "r1", "orders", "p1"), cachedOrder{})
	s.SetJSON(ctx, s.Key("restaurant", "r1", "orders", "p2"), cachedOrder{})
	s.SetJSON(ctx, s.Key("restaurant", "r2", "orders", "p1"), cachedOrder{})

	s.InvalidatePattern(ctx, s.Key("restaurant", "r1", "orders", "*"))

	var got cachedOrder
	if s.GetJSON(ctx, s.Key("restaurant", "r1", "orders", "p1"), &got) {
		t.Fatal("invalidated key should miss")
	}
	if !s.GetJSON(ctx, s.Key("restaurant", "r2", "orders", "p1"), &got) {
		t.Fatal("other restaurant's key should survive")
	}
}

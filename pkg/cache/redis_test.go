package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

type mockRedis struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newMockRedis() *mockRedis {
	return &mockRedis{
		values: make(map[string][]byte),
		ttls:   make(map[string]time.Duration),
	}
}

type mockStatusCmd struct{ err error }

func (c mockStatusCmd) Err() error { return c.err }

type mockStringCmd struct {
	data []byte
	err  error
}

func (c mockStringCmd) Bytes() ([]byte, error) { return c.data, c.err }
func (c mockStringCmd) Err() error             { return c.err }

type mockIntCmd struct{ err error }

func (c mockIntCmd) Err() error { return c.err }

type mockScanCmd struct {
	keys []string
}

func (c mockScanCmd) Result() ([]string, uint64, error) { return c.keys, 0, nil }

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd {
	m.values[key] = value.([]byte)
	m.ttls[key] = expiration
	return mockStatusCmd{}
}

func (m *mockRedis) Get(ctx context.Context, key string) RedisStringCmd {
	data, ok := m.values[key]
	if !ok {
		return mockStringCmd{err: ErrRedisNil}
	}
	return mockStringCmd{data: data}
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) RedisIntCmd {
	for _, k := range keys {
		delete(m.values, k)
		delete(m.ttls, k)
	}
	return mockIntCmd{}
}

func (m *mockRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) RedisScanCmd {
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return mockScanCmd{keys: keys}
}

func (m *mockRedis) Close() error { return nil }

func TestRedisStoreRoundTrip(t *testing.T) {
	client := newMockRedis()
	store := NewRedisStore(client)
	ctx := context.Background()

	entry := &Entry{Markup: "<p>feed</p>", GeneratedAt: time.Now()}
	if err := store.Set(ctx, "/feed", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := client.values["weft:render:/feed"]; !ok {
		t.Fatalf("expected prefixed key, have %v", client.values)
	}

	got, err := store.Get(ctx, "/feed")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Markup != entry.Markup {
		t.Fatalf("Get returned %+v, want markup %q", got, entry.Markup)
	}
}

func TestRedisStoreMissingKey(t *testing.T) {
	store := NewRedisStore(newMockRedis())

	got, err := store.Get(context.Background(), "/absent")
	if err != nil {
		t.Fatalf("expected nil error for missing key, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil entry for missing key, got %+v", got)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	client := newMockRedis()
	store := NewRedisStore(client, WithRedisTTL(10*time.Minute))
	ctx := context.Background()

	if err := store.Set(ctx, "/feed", &Entry{Markup: "x"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := client.ttls["weft:render:/feed"]; ttl != 10*time.Minute {
		t.Fatalf("expected 10m ttl, got %v", ttl)
	}
}

func TestRedisStoreClearRespectsPrefix(t *testing.T) {
	client := newMockRedis()
	client.values["other:key"] = []byte("keep")
	store := NewRedisStore(client, WithRedisPrefix("custom:"))
	ctx := context.Background()

	if err := store.Set(ctx, "/a", &Entry{Markup: "a"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "/b", &Entry{Markup: "b"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(client.values) != 1 {
		t.Fatalf("expected only the foreign key to survive, have %v", client.values)
	}
	if _, ok := client.values["other:key"]; !ok {
		t.Fatal("Clear removed a key outside its prefix")
	}
}

func TestRedisStoreClosed(t *testing.T) {
	store := NewRedisStore(newMockRedis())
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := store.Get(context.Background(), "/feed"); err == nil {
		t.Fatal("expected error from closed store")
	}
	if err := store.Set(context.Background(), "/feed", &Entry{}); err == nil {
		t.Fatal("expected error from closed store")
	}
}

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetdelights/bakery-backend/pkg/config"
)

func TestSetGetDelRoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.CartKey("guest:abc")
	if err := client.Set(ctx, key, `{"items":[]}`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.ttls[key] != time.Hour {
		t.Fatalf("expected ttl to be forwarded, got %s", mock.ttls[key])
	}
	value, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != `{"items":[]}` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestSetNXOnlyFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.CartLockKey("user:1")

	ok, err := client.SetNX(ctx, key, "owner-a", time.Second)
	if err != nil || !ok {
		t.Fatalf("expected first setnx to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "owner-b", time.Second)
	if err != nil || ok {
		t.Fatalf("expected second setnx to lose, ok=%v err=%v", ok, err)
	}
}

func TestIncrWithTTLSetsExpiryOnFirstHit(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RateLimitKey("checkout", "ip", "10.0.0.1")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("incr failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d got %d", want, got)
		}
	}
	if mock.ttls[key] != time.Minute {
		t.Fatalf("expected window ttl, got %s", mock.ttls[key])
	}
	if key != "sd:rl:checkout:ip:10.0.0.1" {
		t.Fatalf("unexpected rate limit key %s", key)
	}
}

func TestUninitializedClientFails(t *testing.T) {
	client := &Client{}
	if err := client.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error from uninitialized client")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "sd:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.CartKey("guest:abc"); got != "sd:cart:guest:abc" {
		t.Fatalf("unexpected cart key %s", got)
	}
	if got := client.CartLockKey("user:42"); got != "sd:lock:cart:user:42" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.IdempotencyKey("", "id"); got != "sd:idempotency:id" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 3 {
		t.Fatalf("unexpected address options %+v", opts)
	}

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

type mockCmdable struct {
	data     map[string]string
	ttls     map[string]time.Duration
	counters map[string]int64
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:     make(map[string]string),
		ttls:     make(map[string]time.Duration),
		counters: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})

	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

const record = `{"access_token":"tok_1","expires_in":3600,"refresh_token":"ref_1","refresh_token_expires_in":604800,"scope":"read","token_type":"bearer"}`

func TestNewRecordStore(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRecordStore(client)
	if store == nil {
		t.Fatal("expected non-nil RecordStore")
	}
	if store.client == nil {
		t.Error("expected non-nil Redis client")
	}
	if store.prefix != "" {
		t.Errorf("expected empty prefix, got %q", store.prefix)
	}
}

func TestRecordStore_SetGet(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRecordStore(client)
	ctx := context.Background()

	if err := store.Set(ctx, "tg_42", record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "tg_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != record {
		t.Errorf("expected %s, got %s", record, got)
	}

	// Stored verbatim at the identity key, without TTL
	raw, err := mr.Get("tg_42")
	if err != nil {
		t.Fatalf("key not found in redis: %v", err)
	}
	if raw != record {
		t.Errorf("unexpected raw value %s", raw)
	}
	if ttl := mr.TTL("tg_42"); ttl != 0 {
		t.Errorf("expected no TTL, got %v", ttl)
	}
}

func TestRecordStore_SetOverwrites(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRecordStore(client)
	ctx := context.Background()

	_ = store.Set(ctx, "tg_42", "first")
	_ = store.Set(ctx, "tg_42", "second")

	got, err := store.Get(ctx, "tg_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "second" {
		t.Errorf("expected last write to win, got %s", got)
	}
}

func TestRecordStore_Get_NotFound(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRecordStore(client)

	_, err := store.Get(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, domain.ErrServiceUnavailable) {
		t.Error("missing key must not look like an outage")
	}
}

func TestRecordStore_Prefix(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRecordStoreWithPrefix(client, "tokenbridge:")
	ctx := context.Background()

	if err := store.Set(ctx, "tg_42", record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("tokenbridge:tg_42") {
		t.Error("expected prefixed key")
	}
	if mr.Exists("tg_42") {
		t.Error("unprefixed key should not exist")
	}

	got, err := store.Get(ctx, "tg_42")
	if err != nil || got != record {
		t.Errorf("unexpected get result %q, %v", got, err)
	}
}

func TestRecordStore_Unavailable(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRecordStore(client)
	ctx := context.Background()
	if err := store.Set(ctx, "tg_42", record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.Close()

	if err := store.Set(ctx, "tg_42", record); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable on set, got %v", err)
	}
	if _, err := store.Get(ctx, "tg_42"); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable on get, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable on ping, got %v", err)
	}
}

func TestRecordStore_Ping(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	if err := NewRecordStore(client).Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}

func TestRecordStore_ConcurrentWriters(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRecordStore(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "tg_" + string(rune('a'+i))
			if err := store.Set(ctx, key, record); err != nil {
				t.Errorf("set %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		key := "tg_" + string(rune('a'+i))
		if _, err := store.Get(ctx, key); err != nil {
			t.Errorf("get %s: %v", key, err)
		}
	}
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if _, err := Connect(context.Background(), "not a url"); err == nil {
		t.Error("expected parse error")
	}
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

func testBundle(access string) *domain.TokenBundle {
	return &domain.TokenBundle{
		AccessToken:           access,
		ExpiresIn:             3600,
		RefreshToken:          "ref_1",
		RefreshTokenExpiresIn: 604800,
		Scope:                 "read",
		TokenType:             "bearer",
	}
}

func TestHandleStore_RoundTrip(t *testing.T) {
	s := NewHandleStore()
	ctx := context.Background()

	grant := &domain.PendingGrant{Handle: "h0000000000000000001", Bundle: testBundle("tok_1")}
	require.NoError(t, s.Insert(ctx, grant))

	got, err := s.Get(ctx, grant.Handle)
	require.NoError(t, err)
	assert.Equal(t, grant.Handle, got.Handle)
	assert.Equal(t, testBundle("tok_1"), got.Bundle)
	assert.Equal(t, 1, s.Len())
}

func TestHandleStore_GetIsNonDestructive(t *testing.T) {
	s := NewHandleStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "h1", Bundle: testBundle("tok_1")}))

	for i := 0; i < 3; i++ {
		_, err := s.Get(ctx, "h1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, s.Len())
}

func TestHandleStore_CopiesOnInsertAndGet(t *testing.T) {
	s := NewHandleStore()
	ctx := context.Background()

	bundle := testBundle("tok_1")
	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "h1", Bundle: bundle}))
	bundle.AccessToken = "mutated"

	got, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "tok_1", got.Bundle.AccessToken)

	got.Bundle.AccessToken = "mutated-again"
	again, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "tok_1", again.Bundle.AccessToken)
}

func TestHandleStore_InsertOverwrites(t *testing.T) {
	s := NewHandleStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "h1", Bundle: testBundle("first")}))
	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "h1", Bundle: testBundle("second")}))

	got, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Bundle.AccessToken)
	assert.Equal(t, 1, s.Len())
}

func TestHandleStore_InsertRejectsNil(t *testing.T) {
	s := NewHandleStore()
	assert.ErrorIs(t, s.Insert(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.Insert(context.Background(), &domain.PendingGrant{Handle: "h1"}), domain.ErrInvalidInput)
}

func TestHandleStore_RemoveIsIdempotent(t *testing.T) {
	s := NewHandleStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "h1", Bundle: testBundle("tok_1")}))

	require.NoError(t, s.Remove(ctx, "h1"))
	require.NoError(t, s.Remove(ctx, "h1"))
	require.NoError(t, s.Remove(ctx, "never-existed"))

	_, err := s.Get(ctx, "h1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleStore_Expiry(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	s := NewHandleStoreWithClock(clock)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "short", Bundle: testBundle("a"), ExpiresAt: clock().Add(time.Minute)}))
	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "long", Bundle: testBundle("b"), ExpiresAt: clock().Add(time.Hour)}))
	require.NoError(t, s.Insert(ctx, &domain.PendingGrant{Handle: "forever", Bundle: testBundle("c")}))

	advance(2 * time.Minute)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrNotFound, "expired grant must be invisible before sweep")
	assert.Equal(t, 3, s.Len())

	removed, err := s.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, s.Len())

	_, err = s.Get(ctx, "long")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestHandleStore_CleanupHonoursContext(t *testing.T) {
	s := NewHandleStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Cleanup(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandleStore_ShardsSpread(t *testing.T) {
	s := NewHandleStore()
	used := make(map[*shard]bool)
	for i := 0; i < 1000; i++ {
		used[s.shardFor(domain.Handle(fmt.Sprintf("h%019d", i)))] = true
	}
	assert.Greater(t, len(used), shardCount/2)
}

func TestHandleStore_Concurrent(t *testing.T) {
	s := NewHandleStore()
	ctx := context.Background()

	const workers = 16
	const perWorker = 200
	var found atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				h := domain.Handle(fmt.Sprintf("w%02di%05d", w, i))
				if err := s.Insert(ctx, &domain.PendingGrant{Handle: h, Bundle: testBundle(string(h))}); err != nil {
					t.Errorf("insert: %v", err)
					return
				}
				got, err := s.Get(ctx, h)
				if err != nil {
					t.Errorf("get after insert: %v", err)
					return
				}
				if got.Bundle.AccessToken == string(h) {
					found.Add(1)
				}
				if i%2 == 0 {
					_ = s.Remove(ctx, h)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), found.Load())
	assert.Equal(t, workers*perWorker/2, s.Len())
}

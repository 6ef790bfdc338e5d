// Package memory holds pending grants in process memory.
package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HandleStore = (*HandleStore)(nil)

// shardCount must stay a power of two.
const shardCount = 64

// HandleStore implements driven.HandleStore with a sharded map.
// Each handle maps to one shard, so operations on the same handle share a
// lock (and are linearizable) while unrelated handles rarely contend.
type HandleStore struct {
	shards [shardCount]*shard
	now    func() time.Time
}

type shard struct {
	mu     sync.RWMutex
	grants map[domain.Handle]domain.PendingGrant
}

// NewHandleStore creates an empty in-memory handle store.
func NewHandleStore() *HandleStore {
	return NewHandleStoreWithClock(time.Now)
}

// NewHandleStoreWithClock creates a store that reads the time from now.
func NewHandleStoreWithClock(now func() time.Time) *HandleStore {
	s := &HandleStore{now: now}
	for i := range s.shards {
		s.shards[i] = &shard{grants: make(map[domain.Handle]domain.PendingGrant)}
	}
	return s
}

func (s *HandleStore) shardFor(h domain.Handle) *shard {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(h))
	return s.shards[hasher.Sum32()&(shardCount-1)]
}

// Insert stores a copy of grant. Last write wins on a repeated handle.
func (s *HandleStore) Insert(_ context.Context, grant *domain.PendingGrant) error {
	if grant == nil || grant.Bundle == nil {
		return domain.ErrInvalidInput
	}
	stored := *grant
	bundle := *grant.Bundle
	stored.Bundle = &bundle

	sh := s.shardFor(grant.Handle)
	sh.mu.Lock()
	sh.grants[grant.Handle] = stored
	sh.mu.Unlock()
	return nil
}

// Get returns a copy of the grant. Expired grants are reported as not found
// even before the sweeper removes them.
func (s *HandleStore) Get(_ context.Context, handle domain.Handle) (*domain.PendingGrant, error) {
	sh := s.shardFor(handle)
	sh.mu.RLock()
	grant, ok := sh.grants[handle]
	sh.mu.RUnlock()

	if !ok || grant.IsExpired(s.now()) {
		return nil, domain.ErrNotFound
	}
	bundle := *grant.Bundle
	grant.Bundle = &bundle
	return &grant, nil
}

// Remove deletes the grant; unknown handles are ignored.
func (s *HandleStore) Remove(_ context.Context, handle domain.Handle) error {
	sh := s.shardFor(handle)
	sh.mu.Lock()
	delete(sh.grants, handle)
	sh.mu.Unlock()
	return nil
}

// Cleanup removes expired grants one shard at a time.
func (s *HandleStore) Cleanup(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		sh.mu.Lock()
		for h, g := range sh.grants {
			if g.IsExpired(now) {
				delete(sh.grants, h)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len returns the number of grants held, including expired ones not yet swept.
func (s *HandleStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.grants)
		sh.mu.RUnlock()
	}
	return n
}

package driven

import (
	"context"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
)

// HandleStore holds pending grants in memory under their handle.
// Implementations must be safe for concurrent use, and operations on the
// same handle must be linearizable.
type HandleStore interface {
	// Insert stores a grant under grant.Handle. An existing entry for the
	// same handle is overwritten.
	Insert(ctx context.Context, grant *domain.PendingGrant) error

	// Get returns the grant without removing it.
	// Returns domain.ErrNotFound if the handle is unknown or expired.
	Get(ctx context.Context, handle domain.Handle) (*domain.PendingGrant, error)

	// Remove deletes the grant. Removing an unknown handle is a no-op.
	Remove(ctx context.Context, handle domain.Handle) error

	// Cleanup deletes expired grants and reports how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Len returns the number of grants currently held, expired or not.
	Len() int
}

package driven

import "context"

// RecordStore is the durable key-value store that keeps serialized token
// bundles keyed by external identity.
//
// Connection failures wrap domain.ErrServiceUnavailable; a missing key on
// Get returns domain.ErrNotFound.
type RecordStore interface {
	// Set writes value at key, replacing any previous value. No TTL is applied.
	Set(ctx context.Context, key, value string) error

	// Get returns the raw value stored at key.
	Get(ctx context.Context, key string) (string, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

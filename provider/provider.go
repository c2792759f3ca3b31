// Package provider defines the backing store behind the cache facade.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key. Stores that frame
// values internally (e.g. to carry an expiry) must strip that framing on Get.
//
// Keys arrive already namespaced by the facade; providers must not rewrite them.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with per-entry absolute expiration.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss or
	// when the entry's expiry has passed.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value, replacing any previous value for key. ttl > 0 makes the
	// entry absent once ttl has elapsed since the call; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Exister is implemented by stores with an existence check cheaper than Get.
type Exister interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Pinger is implemented by remote stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

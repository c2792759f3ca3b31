package infracache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/infracache/codec"
	pr "github.com/unkn0wn-root/infracache/provider"
)

// Cache is a typed view over a Service. Obtain one with Typed or WithCodec.
type Cache[V any] interface {
	// Get returns ok=false when the key is absent or expired.
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	// Set replaces the entry. ttl == 0 uses Options.DefaultTTL (no expiry when
	// that is unset as well); ttl < 0 is rejected.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Remove deletes the entry; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Options configure a Service.
// Only Provider is required (and not even that when Disabled).
type Options struct {
	Namespace  string        // prepended verbatim to every key, e.g. "CleanArchitecture"
	Provider   pr.Provider   // backing store
	Format     c.Format      // "" => JSON with camelCase property names
	MaxPayload int           // refuse to decode payloads larger than this; 0 => no limit
	DefaultTTL time.Duration // used when Set gets ttl == 0; 0 => no expiry
	Logger     Logger        // if nil, NopLogger is used
	Hooks      Hooks         // if nil, NopHooks is used
	Disabled   bool          // cache not activated: reads miss, writes are dropped
}

func New(opts Options) (*Service, error) {
	return newService(opts)
}

// Get reads key and decodes it as T using the service's format.
func Get[T any](ctx context.Context, s *Service, key string) (T, bool, error) {
	return getWith(ctx, s, codecFor[T](s), key)
}

// Set encodes value with the service's format and stores it under key.
func Set[T any](ctx context.Context, s *Service, key string, value T, ttl time.Duration) error {
	return setWith(ctx, s, codecFor[T](s), key, value, ttl)
}

// Typed returns a Cache[V] using the service's configured format.
func Typed[V any](s *Service) Cache[V] {
	return typed[V]{s: s, codec: codecFor[V](s)}
}

// WithCodec returns a Cache[V] that uses cd instead of the configured format,
// e.g. codec.NewProtobuf for proto messages. MaxPayload still applies.
func WithCodec[V any](s *Service, cd c.Codec[V]) Cache[V] {
	return typed[V]{s: s, codec: limitCodec(s, cd)}
}

package infracache

import (
	"context"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/infracache/codec"
	pr "github.com/unkn0wn-root/infracache/provider"
)

const (
	opGet    = "get"
	opSet    = "set"
	opRemove = "remove"
	opExists = "exists"
)

// Service is the untyped facade. It is safe for concurrent use; its only
// state is the configuration fixed by New.
type Service struct {
	ns         string
	provider   pr.Provider
	format     c.Format
	maxPayload int
	defaultTTL time.Duration
	log        Logger
	hooks      Hooks
	enabled    bool
}

func newService(opts Options) (*Service, error) {
	if !opts.Disabled && opts.Provider == nil {
		return nil, fmt.Errorf("infracache: provider is required")
	}
	format := coalesce(opts.Format, c.FormatJSON)
	if !format.Valid() {
		return nil, fmt.Errorf("infracache: unknown format %q", opts.Format)
	}
	if opts.DefaultTTL < 0 {
		return nil, fmt.Errorf("infracache: negative default ttl %v", opts.DefaultTTL)
	}

	s := &Service{
		ns:         opts.Namespace,
		provider:   opts.Provider,
		format:     format,
		maxPayload: opts.MaxPayload,
		defaultTTL: opts.DefaultTTL,
		enabled:    !opts.Disabled,
	}
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return s, nil
}

func (s *Service) Enabled() bool { return s.enabled }

// Namespace returns the prefix applied to every key.
func (s *Service) Namespace() string { return s.ns }

// Ping reports backend connectivity for stores that implement
// provider.Pinger. Disabled services and stores without a Pinger return nil.
func (s *Service) Ping(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	pg, ok := s.provider.(pr.Pinger)
	if !ok {
		return nil
	}
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("infracache: ping: %w", err)
	}
	return nil
}

// StorageKey returns the key as the provider sees it.
func (s *Service) StorageKey(key string) string { return s.ns + key }

func (s *Service) Close(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Close(ctx)
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, opRemove, key, err)
	}
	if err := s.provider.Del(ctx, s.StorageKey(key)); err != nil {
		return s.fail(ctx, opRemove, key, err)
	}
	s.log.Debug("removed cache entry", Fields{"key": key})
	return nil
}

// Exists uses the provider's own existence check when it has one and
// falls back to a full read otherwise.
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	if !s.enabled {
		return false, nil
	}
	ex, ok := s.provider.(pr.Exister)
	if !ok {
		_, found, err := s.fetch(ctx, opExists, key)
		return found, err
	}
	if err := ctx.Err(); err != nil {
		return false, s.fail(ctx, opExists, key, err)
	}
	found, err := ex.Exists(ctx, s.StorageKey(key))
	if err != nil {
		return false, s.fail(ctx, opExists, key, err)
	}
	s.hooks.Lookup(opExists, found)
	return found, nil
}

func (s *Service) fetch(ctx context.Context, op, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, s.fail(ctx, op, key, err)
	}
	raw, ok, err := s.provider.Get(ctx, s.StorageKey(key))
	if err != nil {
		return nil, false, s.fail(ctx, op, key, err)
	}
	s.hooks.Lookup(op, ok)
	return raw, ok, nil
}

func (s *Service) fail(ctx context.Context, op, key string, err error) error {
	oe := backendErr(ctx, op, key, err)
	if oe.Kind == ErrCanceled {
		s.hooks.Canceled(op, s.StorageKey(key))
		s.log.Debug("cache operation canceled", Fields{"op": op, "key": key})
		return oe
	}
	s.hooks.BackendError(op, s.StorageKey(key), err)
	s.log.Warn("cache backend error", Fields{"op": op, "key": key, "err": err})
	return oe
}

func getWith[V any](ctx context.Context, s *Service, cd c.Codec[V], key string) (V, bool, error) {
	var zero V
	if !s.enabled {
		return zero, false, nil
	}
	raw, ok, err := s.fetch(ctx, opGet, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := cd.Decode(raw)
	if err != nil {
		// left in place: the entry may belong to a writer with a newer schema
		s.hooks.DecodeFailed(s.StorageKey(key), err)
		s.log.Warn("cached payload decode failed", Fields{"key": key, "err": err})
		return zero, false, &OpError{Op: opGet, Key: key, Kind: ErrDecode, Err: err}
	}
	return v, true, nil
}

func setWith[V any](ctx context.Context, s *Service, cd c.Codec[V], key string, value V, ttl time.Duration) error {
	if ttl < 0 {
		return &OpError{Op: opSet, Key: key, Kind: ErrInvalidExpiry, Err: fmt.Errorf("ttl %v", ttl)}
	}
	if !s.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	payload, err := cd.Encode(value)
	if err != nil {
		return &OpError{Op: opSet, Key: key, Kind: ErrEncode, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, opSet, key, err)
	}
	if err := s.provider.Set(ctx, s.StorageKey(key), payload, ttl); err != nil {
		return s.fail(ctx, opSet, key, err)
	}
	return nil
}

func codecFor[V any](s *Service) c.Codec[V] {
	cd, err := c.For[V](s.format)
	if err != nil {
		// New only accepts valid formats
		panic(err)
	}
	return limitCodec(s, cd)
}

func limitCodec[V any](s *Service, cd c.Codec[V]) c.Codec[V] {
	if s.maxPayload > 0 {
		return c.Limit[V]{Inner: cd, MaxDecode: s.maxPayload}
	}
	return cd
}

type typed[V any] struct {
	s     *Service
	codec c.Codec[V]
}

func (t typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	return getWith(ctx, t.s, t.codec, key)
}

func (t typed[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	return setWith(ctx, t.s, t.codec, key, value, ttl)
}

func (t typed[V]) Remove(ctx context.Context, key string) error { return t.s.Remove(ctx, key) }

func (t typed[V]) Exists(ctx context.Context, key string) (bool, error) {
	return t.s.Exists(ctx, key)
}

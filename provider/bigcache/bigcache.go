package bigcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/infracache/internal/wire"
	pr "github.com/unkn0wn-root/infracache/provider"
)

// Provider is an in-process backend over bigcache.
//
// BigCache only knows a global LifeWindow, so each value is framed with its
// own absolute expiry and checked on read. LifeWindow still evicts
// unconditionally: a ttl above it is rejected with ErrTTLExceedsLifeWindow and
// an entry stored with ttl <= 0 lives at most LifeWindow.
type Provider struct {
	c    *bc.BigCache
	life time.Duration
	now  func() time.Time
}

// ErrTTLExceedsLifeWindow is returned by Set when ttl is longer than the
// provider's LifeWindow.
var ErrTTLExceedsLifeWindow = errors.New("bigcache provider: ttl exceeds life window")

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration // upper bound on any entry's life; 0 => 24h
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int              // ~ memory limit; 0 = unlimited
	Now                func() time.Time // nil => time.Now
}

func New(cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = 24 * time.Hour
	}
	conf := bc.DefaultConfig(life)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{c: c, life: life, now: now}, nil
}

// LifeWindow is the longest an entry can stay in the store.
func (p *Provider) LifeWindow() time.Duration { return p.life }

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	exp, payload, err := wire.DecodeEntry(b)
	if err != nil {
		_ = p.c.Delete(key) // not ours; drop it
		return nil, false, nil
	}
	if wire.Expired(exp, p.now()) {
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	return payload, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl > p.life {
		return fmt.Errorf("%w: %s > %s", ErrTTLExceedsLifeWindow, ttl, p.life)
	}
	if ttl <= 0 {
		ttl = p.life
	}
	return p.c.Set(key, wire.EncodeEntry(wire.Deadline(p.now(), ttl), value))
}

func (p *Provider) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}

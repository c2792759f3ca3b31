package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/infracache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// Redis is the distributed backend. Each value is a plain string under the
// facade's key, written with SET and read with GET. Only the camelCase JSON
// payload is shared with other clients; stores that keep entries as hashes
// (data/absexp/sldexp fields) are not readable here and fail with WRONGTYPE.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var (
	_ pr.Provider = (*Redis)(nil)
	_ pr.Exister  = (*Redis)(nil)
	_ pr.Pinger   = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// ClientOptions parses a connection string. Both redis:// / rediss:// / unix://
// URLs and bare "host:port" addresses are accepted.
func ClientOptions(conn string) (*goredis.Options, error) {
	conn = strings.TrimSpace(conn)
	if conn == "" {
		return nil, errors.New("redis provider: empty connection string")
	}
	if strings.Contains(conn, "://") {
		opt, err := goredis.ParseURL(conn)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url, %w", err)
		}
		return opt, nil
	}
	return &goredis.Options{Addr: conn}, nil
}

// NewFromConnString dials a client it owns; Close closes it.
func NewFromConnString(conn string) (*Redis, error) {
	opt, err := ClientOptions(conn)
	if err != nil {
		return nil, err
	}
	// fail fast: the facade never retries, neither does the client
	opt.MaxRetries = -1
	return New(Config{Client: goredis.NewClient(opt), CloseClient: true})
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0 // no expiry per provider contract
	}
	if ttl > 0 && ttl < time.Millisecond {
		ttl = time.Millisecond // PX granularity; never round down to "no expiry"
	}
	return p.rdb.Set(ctx, key, value, ttl).Err()
}

func (p *Redis) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.rdb.Del(ctx, key).Err()
}

func (p *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := p.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks connectivity.
func (p *Redis) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

package bolt

import (
	"context"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/infracache/internal/wire"
	pr "github.com/unkn0wn-root/infracache/provider"
)

// Provider persists entries in a single bbolt file. It survives restarts but
// is not shared between hosts; use it for single-node deployments.
type Provider struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ pr.Provider = (*Provider)(nil)

type Options struct {
	// Bucket is the name of the Bolt bucket to use; "" => "cache".
	Bucket string
	// CleanupInterval runs Sweep periodically; 0 disables the loop and expired
	// entries are only skipped on read.
	CleanupInterval time.Duration
	// OpenTimeout bounds waiting for the file lock; 0 => 1s.
	OpenTimeout time.Duration
	Now         func() time.Time
}

// Open initializes or opens a store at path.
func Open(path string, opts Options) (*Provider, error) {
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bucket := []byte("cache")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	p := &Provider{db: db, bucket: bucket, now: opts.Now}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.CleanupInterval > 0 {
		p.ticker = time.NewTicker(opts.CleanupInterval)
		p.stopCh = make(chan struct{})
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ticker.C:
					_, _ = p.Sweep(context.Background())
				case <-p.stopCh:
					return
				}
			}
		}()
	}
	return p, nil
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(p.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		exp, payload, err := wire.DecodeEntry(v)
		if err != nil || wire.Expired(exp, p.now()) {
			return nil
		}
		// bolt memory is only valid inside the transaction
		out = append(make([]byte, 0, len(payload)), payload...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := wire.EncodeEntry(wire.Deadline(p.now(), ttl), value)
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Put([]byte(key), buf)
	})
}

func (p *Provider) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(key))
	})
}

// Sweep deletes expired and unreadable entries and reports how many it removed.
func (p *Provider) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := p.now()
	removed := 0
	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			exp, _, err := wire.DecodeEntry(v)
			if err != nil || wire.Expired(exp, now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (p *Provider) Close(_ context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		if p.stopCh != nil {
			close(p.stopCh)
			p.ticker.Stop()
			p.wg.Wait()
		}
		err = p.db.Close()
	})
	return err
}

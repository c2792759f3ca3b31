// Package providertest holds the behavior every provider.Provider must share.
package providertest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/infracache/provider"
)

// Harness describes a provider under test.
type Harness struct {
	// New returns a fresh, empty provider. Closing it is the harness' job.
	New func(t *testing.T) pr.Provider
	// Advance moves the provider's clock forward by d.
	Advance func(d time.Duration)
	// TTL used by the expiry test; 0 => 2s.
	TTL time.Duration
}

// Run exercises the provider contract.
func Run(t *testing.T, h Harness) {
	ttl := h.TTL
	if ttl == 0 {
		ttl = 2 * time.Second
	}

	t.Run("MissOnUnknownKey", func(t *testing.T) {
		p := h.New(t)
		if v, ok, err := p.Get(context.Background(), "never-written"); err != nil || ok || v != nil {
			t.Fatalf("expected miss, got v=%q ok=%v err=%v", v, ok, err)
		}
		if ex, isEx := p.(pr.Exister); isEx {
			if ok, err := ex.Exists(context.Background(), "never-written"); err != nil || ok {
				t.Fatalf("Exists on unknown key: ok=%v err=%v", ok, err)
			}
		}
	})

	t.Run("SetGetByteTransparent", func(t *testing.T) {
		ctx := context.Background()
		p := h.New(t)
		in := []byte{0, 1, 2, '{', '}', 0xff}
		if err := p.Set(ctx, "k", in, 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		out, ok, err := p.Get(ctx, "k")
		if err != nil || !ok || !bytes.Equal(out, in) {
			t.Fatalf("Get: out=%x ok=%v err=%v", out, ok, err)
		}
	})

	t.Run("OverwriteReplaces", func(t *testing.T) {
		ctx := context.Background()
		p := h.New(t)
		if err := p.Set(ctx, "k", []byte("old-and-longer"), 0); err != nil {
			t.Fatal(err)
		}
		if err := p.Set(ctx, "k", []byte("new"), 0); err != nil {
			t.Fatal(err)
		}
		out, ok, err := p.Get(ctx, "k")
		if err != nil || !ok || string(out) != "new" {
			t.Fatalf("after overwrite: out=%q ok=%v err=%v", out, ok, err)
		}
	})

	t.Run("DelIsIdempotent", func(t *testing.T) {
		ctx := context.Background()
		p := h.New(t)
		if err := p.Del(ctx, "absent"); err != nil {
			t.Fatalf("Del of absent key: %v", err)
		}
		if err := p.Set(ctx, "k", []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
		if err := p.Del(ctx, "k"); err != nil {
			t.Fatalf("Del: %v", err)
		}
		if _, ok, _ := p.Get(ctx, "k"); ok {
			t.Fatalf("entry readable after Del")
		}
	})

	t.Run("TTLExpires", func(t *testing.T) {
		ctx := context.Background()
		p := h.New(t)
		if err := p.Set(ctx, "k", []byte("v"), ttl); err != nil {
			t.Fatal(err)
		}
		if err := p.Set(ctx, "forever", []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
		h.Advance(ttl / 2)
		if _, ok, err := p.Get(ctx, "k"); err != nil || !ok {
			t.Fatalf("entry gone before its expiry: ok=%v err=%v", ok, err)
		}
		h.Advance(ttl)
		if _, ok, err := p.Get(ctx, "k"); err != nil || ok {
			t.Fatalf("entry readable after expiry: ok=%v err=%v", ok, err)
		}
		if _, ok, _ := p.Get(ctx, "forever"); !ok {
			t.Fatalf("entry without ttl expired")
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		p := h.New(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, _, err := p.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
			t.Fatalf("Get with canceled ctx: %v", err)
		}
		if err := p.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, context.Canceled) {
			t.Fatalf("Set with canceled ctx: %v", err)
		}
		if err := p.Del(ctx, "k"); !errors.Is(err, context.Canceled) {
			t.Fatalf("Del with canceled ctx: %v", err)
		}
	})
}

// Clock is a manually advanced time source for providers that take a Now func.
type Clock struct{ t time.Time }

func NewClock() *Clock { return &Clock{t: time.Unix(1_700_000_000, 0)} }

func (c *Clock) Now() time.Time          { return c.t }
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

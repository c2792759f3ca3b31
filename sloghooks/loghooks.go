// Package sloghooks reports cache events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/infracache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	LookupEvery  uint64
	BackendEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	lookupCtr  atomic.Uint64
	backendCtr atomic.Uint64
}

var _ infracache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Lookup(op string, hit bool) {
	if h.l == nil || !sample(h.opts.LookupEvery, &h.lookupCtr) {
		return
	}
	h.l.Debug("infracache.lookup",
		"op", op,
		"hit", hit)
}

func (h *Hooks) DecodeFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("infracache.decode_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) BackendError(op, storageKey string, err error) {
	if h.l == nil || !sample(h.opts.BackendEvery, &h.backendCtr) {
		return
	}
	h.l.Error("infracache.backend_error",
		"op", op,
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) Canceled(op, storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Debug("infracache.canceled",
		"op", op,
		"key", h.redact(storageKey))
}

package infracache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	c "github.com/unkn0wn-root/infracache/codec"
	pr "github.com/unkn0wn-root/infracache/provider"
	rp "github.com/unkn0wn-root/infracache/provider/redis"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu   sync.Mutex
	m    map[string]memEntry
	now  time.Time
	gets int
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider {
	return &memProvider{m: make(map[string]memEntry), now: time.Unix(1_700_000_000, 0)}
}

func (p *memProvider) advance(d time.Duration) {
	p.mu.Lock()
	p.now = p.now.Add(d)
	p.mu.Unlock()
}

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !p.now.Before(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = p.now.Add(ttl)
	}
	p.m[key] = memEntry{v: append([]byte(nil), value...), exp: exp}
	return nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

func (p *memProvider) raw(key string) (memEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	return e, ok
}

// existProvider adds a cheap existence check and counts its use.
type existProvider struct {
	*memProvider
	exists int
}

func (p *existProvider) Exists(ctx context.Context, key string) (bool, error) {
	p.exists++
	p.memProvider.mu.Lock()
	_, ok := p.memProvider.m[key]
	p.memProvider.mu.Unlock()
	return ok, nil
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

type downProvider struct{}

func (downProvider) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errConnRefused
}
func (downProvider) Set(context.Context, string, []byte, time.Duration) error { return errConnRefused }
func (downProvider) Del(context.Context, string) error                        { return errConnRefused }
func (downProvider) Close(context.Context) error                              { return nil }

// blockingProvider never answers until the caller gives up.
type blockingProvider struct{ started chan struct{} }

func (p blockingProvider) wait(ctx context.Context) error {
	p.started <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}
func (p blockingProvider) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	return nil, false, p.wait(ctx)
}
func (p blockingProvider) Set(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
	return p.wait(ctx)
}
func (p blockingProvider) Del(ctx context.Context, _ string) error { return p.wait(ctx) }
func (p blockingProvider) Exists(ctx context.Context, _ string) (bool, error) {
	return false, p.wait(ctx)
}
func (p blockingProvider) Close(context.Context) error { return nil }

type recordingHooks struct {
	mu       sync.Mutex
	hits     int
	misses   int
	decode   []string
	backend  []string
	canceled []string
}

func (h *recordingHooks) Lookup(_ string, hit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hit {
		h.hits++
	} else {
		h.misses++
	}
}
func (h *recordingHooks) DecodeFailed(k string, _ error) {
	h.mu.Lock()
	h.decode = append(h.decode, k)
	h.mu.Unlock()
}
func (h *recordingHooks) BackendError(op, _ string, _ error) {
	h.mu.Lock()
	h.backend = append(h.backend, op)
	h.mu.Unlock()
}
func (h *recordingHooks) Canceled(op, _ string) {
	h.mu.Lock()
	h.canceled = append(h.canceled, op)
	h.mu.Unlock()
}

type session struct {
	User     string
	UserID   int
	Roles    []string
	IssuedAt time.Time
}

func newTestService(t *testing.T, p pr.Provider, optsOpt func(*Options)) *Service {
	t.Helper()
	opts := Options{Namespace: "CleanArchitecture", Provider: p}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// ==============================
// Construction
// ==============================

func TestNewValidates(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without provider")
	}
	if _, err := New(Options{Provider: newMemProvider(), Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := New(Options{Provider: newMemProvider(), DefaultTTL: -time.Second}); err == nil {
		t.Fatalf("expected error for negative default ttl")
	}
	if _, err := New(Options{Disabled: true}); err != nil {
		t.Fatalf("disabled service must not need a provider: %v", err)
	}
}

// ==============================
// Get / Set / Remove / Exists
// ==============================

func TestNeverWrittenIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemProvider(), nil)

	for _, k := range []string{"a", "session:1", "x:y:z"} {
		if v, ok, err := Get[session](ctx, s, k); err != nil || ok || v.User != "" {
			t.Fatalf("Get(%q) on fresh cache: v=%+v ok=%v err=%v", k, v, ok, err)
		}
		if ok, err := s.Exists(ctx, k); err != nil || ok {
			t.Fatalf("Exists(%q) on fresh cache: ok=%v err=%v", k, ok, err)
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s := newTestService(t, mp, nil)

	in := session{User: "alice", UserID: 42, Roles: []string{"Administrator"}, IssuedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := Set(ctx, s, "session:42", in, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	out, ok, err := Get[session](ctx, s, "session:42")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if out.User != in.User || out.UserID != in.UserID || len(out.Roles) != 1 || !out.IssuedAt.Equal(in.IssuedAt) {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}

	e, ok := mp.raw("CleanArchitecture" + "session:42")
	if !ok {
		t.Fatalf("entry not stored under the namespaced key")
	}
	if !strings.Contains(string(e.v), `"user":"alice"`) || !strings.Contains(string(e.v), `"userID":42`) {
		t.Fatalf("stored payload not camelCase: %s", e.v)
	}
	if !e.exp.IsZero() {
		t.Fatalf("ttl=0 must not set an expiry")
	}
}

func TestSetWithExpiry(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s := newTestService(t, mp, nil)

	if err := Set(ctx, s, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mp.advance(59 * time.Second)
	if v, ok, err := Get[string](ctx, s, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("before expiry: v=%q ok=%v err=%v", v, ok, err)
	}
	mp.advance(time.Second)
	if _, ok, err := Get[string](ctx, s, "k"); err != nil || ok {
		t.Fatalf("after expiry: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Fatalf("Exists after expiry")
	}
}

func TestDefaultTTLAppliesOnlyToZero(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s := newTestService(t, mp, func(o *Options) { o.DefaultTTL = time.Hour })

	_ = Set(ctx, s, "dflt", 1, 0)
	_ = Set(ctx, s, "explicit", 1, time.Minute)
	d, _ := mp.raw("CleanArchitecturedflt")
	e, _ := mp.raw("CleanArchitectureexplicit")
	if got := d.exp.Sub(mp.now); got != time.Hour {
		t.Fatalf("default ttl not applied: %v", got)
	}
	if got := e.exp.Sub(mp.now); got != time.Minute {
		t.Fatalf("explicit ttl overridden: %v", got)
	}
}

func TestNegativeExpiryRejected(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s := newTestService(t, mp, nil)

	err := Set(ctx, s, "k", "v", -time.Second)
	if !errors.Is(err, ErrInvalidExpiry) {
		t.Fatalf("expected ErrInvalidExpiry, got %v", err)
	}
	if _, ok := mp.raw("CleanArchitecturek"); ok {
		t.Fatalf("rejected Set must not write")
	}
}

func TestOverwriteReplacesEntirely(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemProvider(), nil)

	_ = Set(ctx, s, "k", session{User: "alice", Roles: []string{"a", "b"}}, 0)
	_ = Set(ctx, s, "k", session{User: "bob"}, 0)
	got, ok, err := Get[session](ctx, s, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.User != "bob" || len(got.Roles) != 0 {
		t.Fatalf("old data leaked through overwrite: %+v", got)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemProvider(), nil)

	if err := s.Remove(ctx, "absent"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	_ = Set(ctx, s, "k", 1, 0)
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, err := Get[int](ctx, s, "k"); err != nil || ok {
		t.Fatalf("Get after Remove: ok=%v err=%v", ok, err)
	}
}

func TestPingWithoutPinger(t *testing.T) {
	s := newTestService(t, newMemProvider(), nil)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping on a store without Ping: %v", err)
	}
}

func TestExistsFallsBackToRead(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s := newTestService(t, mp, nil)

	_ = Set(ctx, s, "k", 1, 0)
	before := mp.gets
	if ok, err := s.Exists(ctx, "k"); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	if mp.gets != before+1 {
		t.Fatalf("Exists without Exister must read the entry")
	}
}

func TestExistsUsesProviderCheck(t *testing.T) {
	ctx := context.Background()
	ep := &existProvider{memProvider: newMemProvider()}
	s := newTestService(t, ep, nil)

	_ = Set(ctx, s, "k", 1, 0)
	before := ep.gets
	if ok, err := s.Exists(ctx, "k"); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Exists(ctx, "other"); ok {
		t.Fatalf("Exists(other) = true")
	}
	if ep.exists != 2 || ep.gets != before {
		t.Fatalf("expected provider Exists to be used: exists=%d gets=%d->%d", ep.exists, before, ep.gets)
	}
}

func TestConcreteScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemProvider(), nil)

	if err := Set(ctx, s, "session:42", map[string]string{"user": "alice"}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := Get[map[string]string](ctx, s, "session:42")
	if err != nil || !ok || got["user"] != "alice" || len(got) != 1 {
		t.Fatalf("Get: got=%v ok=%v err=%v", got, ok, err)
	}
	if err := s.Remove(ctx, "session:42"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, err := s.Exists(ctx, "session:42"); err != nil || ok {
		t.Fatalf("Exists after Remove: ok=%v err=%v", ok, err)
	}
}

// ==============================
// Failure semantics
// ==============================

func TestMalformedPayloadIsDecodeError(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	hooks := &recordingHooks{}
	s := newTestService(t, mp, func(o *Options) { o.Hooks = hooks })

	_ = mp.Set(ctx, s.StorageKey("bad"), []byte(`{"user":`), 0)
	v, ok, err := Get[session](ctx, s, "bad")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if ok || v.User != "" {
		t.Fatalf("decode failure must not report a value: ok=%v v=%+v", ok, v)
	}
	var oe *OpError
	if !errors.As(err, &oe) || oe.Op != "get" || oe.Key != "bad" {
		t.Fatalf("unexpected error shape: %#v", err)
	}
	if errors.Is(err, ErrBackend) || IsCanceled(err) {
		t.Fatalf("decode error conflated with other kinds: %v", err)
	}
	if len(hooks.decode) != 1 || hooks.decode[0] != "CleanArchitecturebad" {
		t.Fatalf("DecodeFailed hook: %v", hooks.decode)
	}
	// the entry is left for its writer
	if _, ok := mp.raw(s.StorageKey("bad")); !ok {
		t.Fatalf("malformed entry was deleted")
	}
	// wrong declared type is a decode error too
	_ = Set(ctx, s, "num", 5, 0)
	if _, _, err := Get[session](ctx, s, "num"); !errors.Is(err, ErrDecode) {
		t.Fatalf("type mismatch: expected ErrDecode, got %v", err)
	}
}

func TestMaxPayload(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemProvider(), func(o *Options) { o.MaxPayload = 16 })

	_ = Set(ctx, s, "big", strings.Repeat("x", 64), 0)
	_, _, err := Get[string](ctx, s, "big")
	if !errors.Is(err, ErrDecode) || !errors.Is(err, c.ErrPayloadTooLarge) {
		t.Fatalf("expected oversized payload decode error, got %v", err)
	}
}

func TestEncodeErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s := newTestService(t, mp, nil)

	err := Set(ctx, s, "ch", make(chan int), 0)
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
	if _, ok := mp.raw(s.StorageKey("ch")); ok {
		t.Fatalf("failed encode must not write")
	}
}

func TestBackendUnavailable(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	s := newTestService(t, downProvider{}, func(o *Options) { o.Hooks = hooks })

	checks := []struct {
		op  string
		err error
	}{
		{"get", func() error { _, _, err := Get[int](ctx, s, "k"); return err }()},
		{"set", Set(ctx, s, "k", 1, 0)},
		{"remove", s.Remove(ctx, "k")},
		{"exists", func() error { _, err := s.Exists(ctx, "k"); return err }()},
	}
	for _, ch := range checks {
		if !errors.Is(ch.err, ErrBackend) || !errors.Is(ch.err, errConnRefused) {
			t.Fatalf("%s: expected ErrBackend wrapping cause, got %v", ch.op, ch.err)
		}
		if IsCanceled(ch.err) {
			t.Fatalf("%s: backend failure reported as canceled", ch.op)
		}
	}
	if len(hooks.backend) != 4 {
		t.Fatalf("BackendError hook calls: %v", hooks.backend)
	}
}

func TestCanceledBeforeCall(t *testing.T) {
	mp := newMemProvider()
	s := newTestService(t, mp, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := Get[int](ctx, s, "k"); !IsCanceled(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Get: %v", err)
	}
	if err := Set(ctx, s, "k", 1, 0); !IsCanceled(err) {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := mp.raw(s.StorageKey("k")); ok {
		t.Fatalf("canceled Set wrote the entry")
	}
	if err := s.Remove(ctx, "k"); !IsCanceled(err) {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Exists(ctx, "k"); !IsCanceled(err) {
		t.Fatalf("Exists: %v", err)
	}
}

func TestCancelInFlight(t *testing.T) {
	bp := blockingProvider{started: make(chan struct{}, 1)}
	hooks := &recordingHooks{}
	s := newTestService(t, bp, func(o *Options) { o.Hooks = hooks })

	ops := map[string]func(ctx context.Context) error{
		"get":    func(ctx context.Context) error { _, _, err := Get[int](ctx, s, "k"); return err },
		"set":    func(ctx context.Context) error { return Set(ctx, s, "k", 1, 0) },
		"remove": func(ctx context.Context) error { return s.Remove(ctx, "k") },
		"exists": func(ctx context.Context) error { _, err := s.Exists(ctx, "k"); return err },
	}
	for name, op := range ops {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- op(ctx) }()
		<-bp.started
		cancel()
		select {
		case err := <-done:
			if !IsCanceled(err) || errors.Is(err, ErrBackend) {
				t.Fatalf("%s: expected cancellation outcome, got %v", name, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s: did not return after cancel", name)
		}
	}
	if len(hooks.canceled) != 4 || len(hooks.backend) != 0 {
		t.Fatalf("hooks: canceled=%v backend=%v", hooks.canceled, hooks.backend)
	}
}

func TestDeadlineIsCancellation(t *testing.T) {
	bp := blockingProvider{started: make(chan struct{}, 1)}
	s := newTestService(t, bp, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := Get[int](ctx, s, "k")
	if !IsCanceled(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected canceled outcome wrapping deadline, got %v", err)
	}
}

// ==============================
// Disabled cache
// ==============================

func TestDisabledIsInert(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil, func(o *Options) { o.Disabled = true })

	if s.Enabled() {
		t.Fatalf("Enabled() = true")
	}
	if err := Set(ctx, s, "k", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := Get[int](ctx, s, "k"); err != nil || ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Exists(ctx, "k"); err != nil || ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// ==============================
// Typed views and formats
// ==============================

func TestTypedViewAndFormats(t *testing.T) {
	ctx := context.Background()
	for _, f := range []c.Format{c.FormatJSON, c.FormatMsgpack, c.FormatCBOR} {
		s := newTestService(t, newMemProvider(), func(o *Options) { o.Format = f })
		cache := Typed[session](s)
		if err := cache.Set(ctx, "k", session{User: "alice", UserID: 1}, 0); err != nil {
			t.Fatalf("%s Set: %v", f, err)
		}
		got, ok, err := cache.Get(ctx, "k")
		if err != nil || !ok || got.User != "alice" || got.UserID != 1 {
			t.Fatalf("%s Get: got=%+v ok=%v err=%v", f, got, ok, err)
		}
		if ok, _ := cache.Exists(ctx, "k"); !ok {
			t.Fatalf("%s Exists", f)
		}
		if err := cache.Remove(ctx, "k"); err != nil {
			t.Fatalf("%s Remove: %v", f, err)
		}
	}
}

func TestWithCodec(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemProvider(), nil)
	cache := WithCodec[session](s, c.Msgpack[session]{})

	_ = cache.Set(ctx, "k", session{User: "alice"}, 0)
	if got, ok, err := cache.Get(ctx, "k"); err != nil || !ok || got.User != "alice" {
		t.Fatalf("Get: got=%+v ok=%v err=%v", got, ok, err)
	}
	// the default JSON view cannot read msgpack bytes
	if _, _, err := Get[session](ctx, s, "k"); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode reading msgpack as json, got %v", err)
	}
}

func TestLookupHooks(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	s := newTestService(t, newMemProvider(), func(o *Options) { o.Hooks = hooks })

	_, _, _ = Get[int](ctx, s, "k")
	_ = Set(ctx, s, "k", 1, 0)
	_, _, _ = Get[int](ctx, s, "k")
	_, _ = s.Exists(ctx, "k")
	if hooks.hits != 2 || hooks.misses != 1 {
		t.Fatalf("hits=%d misses=%d", hooks.hits, hooks.misses)
	}
}

// ==============================
// Redis backend end to end
// ==============================

func newRedisService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	p, err := rp.NewFromConnString(m.Addr())
	if err != nil {
		t.Fatalf("redis provider: %v", err)
	}
	s := newTestService(t, p, nil)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, m
}

func TestRedisScenario(t *testing.T) {
	ctx := context.Background()
	s, m := newRedisService(t)

	type payload struct{ User string }
	if err := Set(ctx, s, "session:42", payload{User: "alice"}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := m.Get("CleanArchitecturesession:42")
	if err != nil || raw != `{"user":"alice"}` {
		t.Fatalf("stored %q err=%v", raw, err)
	}
	got, ok, err := Get[payload](ctx, s, "session:42")
	if err != nil || !ok || got.User != "alice" {
		t.Fatalf("Get: got=%+v ok=%v err=%v", got, ok, err)
	}
	if err := s.Remove(ctx, "session:42"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, err := s.Exists(ctx, "session:42"); err != nil || ok {
		t.Fatalf("Exists after Remove: ok=%v err=%v", ok, err)
	}
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	s, m := newRedisService(t)

	if err := Set(ctx, s, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m.FastForward(9 * time.Second)
	if ok, _ := s.Exists(ctx, "k"); !ok {
		t.Fatalf("expired early")
	}
	m.FastForward(time.Second)
	if _, ok, err := Get[string](ctx, s, "k"); err != nil || ok {
		t.Fatalf("readable after expiry: ok=%v err=%v", ok, err)
	}
}

func TestRedisDown(t *testing.T) {
	ctx := context.Background()
	s, m := newRedisService(t)
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if ns := s.Namespace(); ns != "CleanArchitecture" {
		t.Fatalf("Namespace() = %q", ns)
	}
	m.Close()

	if err := s.Ping(ctx); err == nil {
		t.Fatalf("Ping succeeded against a stopped server")
	}

	if _, _, err := Get[string](ctx, s, "k"); !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

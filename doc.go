// Package infracache is the application's cache facade: a typed
// get/set/remove/exists contract over a distributed key-value store.
//
// Components:
//   - Provider: byte store with per-entry expiry (Redis in production;
//     Ristretto, BigCache or bbolt for single-node setups).
//   - Codec[V]: (de)serializes V <-> []byte. JSON with camelCase property
//     names by default, so entries stay compatible with other services
//     reading the same store.
//   - Service: owns the provider, the key namespace and the codec format.
//
// Keys:
//
//	<namespace><key>  - the namespace (host instance name) is prepended verbatim
//
// Usage:
//
//	svc, _ := infracache.New(infracache.Options{Namespace: "CleanArchitecture", Provider: p})
//	_ = infracache.Set(ctx, svc, "session:42", Session{User: "alice"}, 0)
//	s, ok, err := infracache.Get[Session](ctx, svc, "session:42")
//
// The facade adds no locking, retries or local fallback. Every failure is
// returned to the caller as an *OpError whose kind is one of ErrBackend,
// ErrDecode, ErrEncode, ErrCanceled or ErrInvalidExpiry.
package infracache

package infracache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The facade calls them on every operation.
type Hooks interface {
	// A Get or Exists completed; hit reports whether an entry was found.
	Lookup(op string, hit bool)

	// A stored payload failed to decode. The entry is left in place.
	DecodeFailed(storageKey string, err error)

	// The provider failed (connection, timeout, server error).
	BackendError(op, storageKey string, err error)

	// The caller's context ended while the operation was in flight.
	Canceled(op, storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Lookup(string, bool)                {}
func (NopHooks) DecodeFailed(string, error)         {}
func (NopHooks) BackendError(string, string, error) {}
func (NopHooks) Canceled(string, string)            {}

// MultiHooks fans every event out to each element in order.
type MultiHooks []Hooks

func (m MultiHooks) Lookup(op string, hit bool) {
	for _, h := range m {
		h.Lookup(op, hit)
	}
}

func (m MultiHooks) DecodeFailed(k string, err error) {
	for _, h := range m {
		h.DecodeFailed(k, err)
	}
}

func (m MultiHooks) BackendError(op, k string, err error) {
	for _, h := range m {
		h.BackendError(op, k, err)
	}
}

func (m MultiHooks) Canceled(op, k string) {
	for _, h := range m {
		h.Canceled(op, k)
	}
}

package infracache

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; the underlying cause stays reachable
// the same way (e.g. errors.Is(err, context.DeadlineExceeded)).
var (
	// ErrBackend: the backing store failed or could not be reached.
	ErrBackend = errors.New("infracache: backend unavailable")
	// ErrDecode: a stored payload could not be decoded into the requested type.
	ErrDecode = errors.New("infracache: malformed cached payload")
	// ErrEncode: the value could not be encoded; nothing was written.
	ErrEncode = errors.New("infracache: encode failed")
	// ErrCanceled: the caller's context ended before the backend answered.
	ErrCanceled = errors.New("infracache: operation canceled")
	// ErrInvalidExpiry: Set was called with a negative expiry.
	ErrInvalidExpiry = errors.New("infracache: negative expiry")
)

// OpError describes a failed facade operation.
type OpError struct {
	Op   string // "get", "set", "remove", "exists"
	Key  string // caller key, without namespace
	Kind error  // one of the Err* kinds above
	Err  error  // underlying cause; may be nil
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Kind)
	}
	return fmt.Sprintf("%s %q: %v: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsCanceled reports whether err is a cancellation outcome.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// backendErr classifies a provider error. Cancellation is decided by the
// caller's context, so a provider's own I/O timeout stays a backend error.
func backendErr(ctx context.Context, op, key string, err error) *OpError {
	if cerr := ctx.Err(); cerr != nil {
		if errors.Is(err, cerr) {
			return &OpError{Op: op, Key: key, Kind: ErrCanceled, Err: err}
		}
		return &OpError{Op: op, Key: key, Kind: ErrCanceled, Err: errors.Join(cerr, err)}
	}
	return &OpError{Op: op, Key: key, Kind: ErrBackend, Err: err}
}

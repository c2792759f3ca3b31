package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8
)

var (
	ErrCorrupt = errors.New("infracache: corrupt entry envelope")
	magic4     = [...]byte{'I', 'F', 'C', 'E'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | expiresAt(i64 be, unix nanos; 0 = never) | payload
//
// Used only by backends that cannot expire individual entries themselves.
func EncodeEntry(expiresAt time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var exp int64
	if !expiresAt.IsZero() {
		exp = expiresAt.UnixNano()
	}
	binary.BigEndian.PutUint64(u8[:], uint64(exp))
	buf.Write(u8[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeEntry returns the expiry (zero time when the entry never expires) and
// a payload slice that aliases b.
func DecodeEntry(b []byte) (expiresAt time.Time, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return time.Time{}, nil, ErrCorrupt
	}
	exp := int64(binary.BigEndian.Uint64(b[5:hdrLen]))
	if exp < 0 {
		return time.Time{}, nil, ErrCorrupt
	}
	if exp > 0 {
		expiresAt = time.Unix(0, exp)
	}
	return expiresAt, b[hdrLen:], nil
}

// Expired reports whether an entry with the given expiry is gone at now.
func Expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}

// Deadline converts a relative ttl into an absolute expiry; ttl <= 0 => never.
func Deadline(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

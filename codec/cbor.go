package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBOR serializes values using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// deterministic=true selects RFC 8949 core deterministic encoding, otherwise
// the preferred (unsorted) options are used. Times are written as RFC3339Nano.
// Maps decoded into interface values come back as map[string]any so they can
// be re-encoded as JSON.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

type cborModes struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// preferred backs For(FormatCBOR) so lookups do not rebuild modes per call.
var preferred = mustCBORModes(false)

func newCBORModes(deterministic bool) (cborModes, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return cborModes{}, err
	}
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return cborModes{}, err
	}
	return cborModes{enc: em, dec: dm}, nil
}

func mustCBORModes(deterministic bool) cborModes {
	m, err := newCBORModes(deterministic)
	if err != nil {
		panic(err)
	}
	return m
}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	m, err := newCBORModes(deterministic)
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: m.enc, dec: m.dec}, nil
}

// MustCBOR is like NewCBOR but panics on error.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}

package codec

import "fmt"

// Format names a built-in codec so it can be picked from configuration.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatCBOR    Format = "cbor"
)

func (f Format) Valid() bool {
	switch f {
	case FormatJSON, FormatMsgpack, FormatCBOR:
		return true
	}
	return false
}

// For returns the codec for f. The empty Format selects JSON.
func For[V any](f Format) (Codec[V], error) {
	switch f {
	case "", FormatJSON:
		return JSON[V]{}, nil
	case FormatMsgpack:
		return Msgpack[V]{}, nil
	case FormatCBOR:
		return CBOR[V]{enc: preferred.enc, dec: preferred.dec}, nil
	default:
		return nil, fmt.Errorf("codec: unknown format %q", f)
	}
}

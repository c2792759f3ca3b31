// Package codec turns caller values into the bytes a provider stores.
//
// JSON is the default wire format and writes camelCase field names, which is
// what existing entries in a shared cache are expected to look like. Msgpack,
// CBOR and Protobuf are available for caches that are not shared with other
// runtimes.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var (
	protoMarshal   = proto.MarshalOptions{Deterministic: true}
	protoUnmarshal = proto.UnmarshalOptions{DiscardUnknown: true}
)

// Protobuf stores proto messages in their binary wire form. Encoding is
// deterministic; unknown fields written by newer schemas are dropped on
// decode.
type Protobuf[T proto.Message] struct {
	ctor func() T // e.g. func() *pb.Session { return &pb.Session{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return protoMarshal.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.ctor == nil {
		var zero T
		return zero, errors.New("codec: Protobuf needs a constructor, use NewProtobuf")
	}
	m := c.ctor()
	return m, protoUnmarshal.Unmarshal(b, m)
}

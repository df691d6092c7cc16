package codec

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var (
	protoMarshal   = protojson.MarshalOptions{UseProtoNames: false, EmitUnpopulated: false}
	protoUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}
)

// asProto reports whether v is a protobuf message.
func asProto(v any) (proto.Message, bool) {
	m, ok := v.(proto.Message)
	return m, ok
}

// marshalProto renders a protobuf message as JSON.
func marshalProto(m proto.Message) ([]byte, error) {
	return protoMarshal.Marshal(m)
}

// unmarshalProto parses JSON into a protobuf message, ignoring unknown fields.
func unmarshalProto(data []byte, m proto.Message) error {
	return protoUnmarshal.Unmarshal(data, m)
}

package pipelinev1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec for the plain Go structs in this
// package. The deployment this client/server talks to never published
// .proto sources, so there is no protobuf descriptor to marshal against;
// registering a codec under the "proto" name makes grpc-go use it as the
// default wire codec without requiring callers to set a content-subtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("pipelinev1: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("pipelinev1: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return "proto"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

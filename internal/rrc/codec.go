package rrc

import (
	"encoding/json"
	"fmt"
)

// Codec is the boundary to the ASN.1 UPER encoder/decoder spec.md
// section 1 treats as an external collaborator ("exposed as a pure
// encode/decode function"). JSONCodec below is a reference
// implementation with the same shape, used for tests and standalone
// runs in place of a real UPER codec.
type Codec interface {
	Encode(kind string, msg any) ([]byte, error)
	Decode(data []byte) (kind string, msg json.RawMessage, err error)
}

type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type JSONCodec struct{}

func (JSONCodec) Encode(kind string, msg any) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("rrc: encode %s: %w", kind, err)
	}
	return json.Marshal(envelope{Kind: kind, Payload: payload})
}

func (JSONCodec) Decode(data []byte) (string, json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("rrc: decode envelope: %w", err)
	}
	return env.Kind, env.Payload, nil
}

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// Payload is a decoded JSON object as produced by encoding/json.
type Payload = map[string]any

// Frame is one decoded inbound frame. Exactly one of Payload and Audio is
// set.
type Frame struct {
	Payload Payload
	Audio   []byte
}

func (f Frame) IsAudio() bool { return f.Payload == nil && f.Audio != nil }

// DecodeError reports a frame or base64 value that could not be decoded.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode decodes a single frame read from the transport. messageType is a
// gorilla/websocket message type.
func Decode(messageType int, data []byte) (Frame, error) {
	switch messageType {
	case websocket.TextMessage:
		payload, err := decodeObject(data)
		if err != nil {
			return Frame{}, &DecodeError{Op: "text frame", Err: err}
		}
		return Frame{Payload: payload}, nil

	case websocket.BinaryMessage:
		buffer := bytes.Clone(data)
		if payload, err := decodeObject(buffer); err == nil {
			return Frame{Payload: payload}, nil
		}
		if len(buffer) == 0 {
			return Frame{}, &DecodeError{Op: "binary frame", Err: fmt.Errorf("empty frame")}
		}
		return Frame{Audio: buffer}, nil

	default:
		return Frame{}, &DecodeError{Op: "frame", Err: fmt.Errorf("unsupported message type %d", messageType)}
	}
}

// DecodePayload decodes a JSON object from a text payload.
func DecodePayload(data []byte) (Payload, error) {
	payload, err := decodeObject(data)
	if err != nil {
		return nil, &DecodeError{Op: "payload", Err: err}
	}
	return payload, nil
}

func decodeObject(data []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	var payload Payload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	return payload, nil
}

// Encode encodes v for the wire.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}

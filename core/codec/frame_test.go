package codec

import (
	"errors"
	"testing"

	"github.com/gorilla/websocket"
)

func TestDecodeTextFrame(t *testing.T) {
	frame, err := Decode(websocket.TextMessage, []byte(`{"setupComplete":true}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if frame.Payload["setupComplete"] != true {
		t.Fatalf("expected setupComplete payload, got %v", frame.Payload)
	}
	if frame.IsAudio() {
		t.Fatalf("expected payload frame, got audio")
	}
}

func TestDecodeBinaryJSONUsesPayloadPath(t *testing.T) {
	frame, err := Decode(websocket.BinaryMessage, []byte(` {"toolCall":{}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := frame.Payload["toolCall"]; !ok {
		t.Fatalf("expected toolCall payload, got %v", frame.Payload)
	}
}

func TestDecodeBinaryNonJSONIsAudio(t *testing.T) {
	data := []byte{0x01, 0x02, 0x7b}
	frame, err := Decode(websocket.BinaryMessage, data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !frame.IsAudio() || len(frame.Audio) != 3 {
		t.Fatalf("expected 3 audio bytes, got %v", frame.Audio)
	}

	data[0] = 9
	if frame.Audio[0] != 1 {
		t.Fatalf("expected audio to be copied from the read buffer")
	}
}

func TestDecodeMalformedTextFrame(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "truncated", data: `{"serverContent":`},
		{name: "array", data: `[1,2]`},
		{name: "null", data: `null`},
		{name: "empty", data: ``},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Decode(websocket.TextMessage, []byte(testCase.data))
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
		})
	}
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	data, err := Encode(map[string]any{"blob": map[string]any{"mimeType": "audio/pcm", "data": "AAAA"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	frame, err := Decode(websocket.TextMessage, data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	blob, ok := frame.Payload["blob"].(map[string]any)
	if !ok || blob["mimeType"] != "audio/pcm" {
		t.Fatalf("expected blob with mime type, got %v", frame.Payload)
	}
}

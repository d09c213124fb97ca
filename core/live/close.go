package live

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-live/core/codec"
)

var reasonPattern = regexp.MustCompile(`"(?:reason|message|error|detail)"\s*:\s*"((?:[^"\\]|\\.)*)"`)

var reasonKeys = []string{"reason", "message", "error", "detail"}

// closeDetails extracts the close code and a human readable reason from a
// read error.
func closeDetails(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, closeReason(closeErr.Code, closeErr.Text)
	}
	if err == nil {
		return websocket.CloseNormalClosure, closeCodeName(websocket.CloseNormalClosure)
	}
	return websocket.CloseAbnormalClosure, err.Error()
}

// closeReason prefers a reason embedded in structured close text, then the
// raw text, then the name of the close code.
func closeReason(code int, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return closeCodeName(code)
	}
	if payload, err := codec.DecodePayload([]byte(text)); err == nil {
		if reason := findReason(payload); reason != "" {
			return reason
		}
	}
	if match := reasonPattern.FindStringSubmatch(text); match != nil {
		return strings.ReplaceAll(match[1], `\"`, `"`)
	}
	return text
}

func findReason(payload map[string]any) string {
	for _, key := range reasonKeys {
		switch value := payload[key].(type) {
		case string:
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		case map[string]any:
			if reason := findReason(value); reason != "" {
				return reason
			}
		}
	}
	return ""
}

func closeCodeName(code int) string {
	switch code {
	case websocket.CloseNormalClosure:
		return "normal closure"
	case websocket.CloseGoingAway:
		return "going away"
	case websocket.CloseProtocolError:
		return "protocol error"
	case websocket.CloseUnsupportedData:
		return "unsupported data"
	case websocket.CloseNoStatusReceived:
		return "no status received"
	case websocket.CloseAbnormalClosure:
		return "abnormal closure"
	case websocket.CloseInvalidFramePayloadData:
		return "invalid frame payload data"
	case websocket.ClosePolicyViolation:
		return "policy violation"
	case websocket.CloseMessageTooBig:
		return "message too big"
	case websocket.CloseInternalServerErr:
		return "internal server error"
	case websocket.CloseServiceRestart:
		return "service restart"
	case websocket.CloseTryAgainLater:
		return "try again later"
	default:
		return fmt.Sprintf("close code %d", code)
	}
}

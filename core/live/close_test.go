package live

import (
	"errors"
	"testing"

	"github.com/gorilla/websocket"
)

func TestCloseReason(t *testing.T) {
	testCases := []struct {
		name     string
		code     int
		text     string
		expected string
	}{
		{name: "structured reason", code: 1008, text: `{"reason":"invalid session"}`, expected: "invalid session"},
		{name: "nested error", code: 1011, text: `{"error":{"message":"quota exceeded"}}`, expected: "quota exceeded"},
		{name: "truncated json", code: 1011, text: `{"detail":"agent crashed","trace":"...`, expected: "agent crashed"},
		{name: "plain text", code: 1000, text: "bye", expected: "bye"},
		{name: "empty text", code: 1001, text: "", expected: "going away"},
		{name: "unknown code", code: 4999, text: " ", expected: "close code 4999"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := closeReason(testCase.code, testCase.text); got != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestCloseDetails(t *testing.T) {
	code, reason := closeDetails(&websocket.CloseError{Code: 4000, Text: `{"reason":"expired"}`})
	if code != 4000 || reason != "expired" {
		t.Fatalf("expected 4000 expired, got %d %q", code, reason)
	}

	code, reason = closeDetails(errors.New("connection reset by peer"))
	if code != websocket.CloseAbnormalClosure || reason != "connection reset by peer" {
		t.Fatalf("expected abnormal closure with error text, got %d %q", code, reason)
	}
}

package commands

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/koscakluka/ema-live/core/events"
)

func TestClosedError(t *testing.T) {
	normal := events.NewClosed(events.ConnectionInfo{RunID: 1}, websocket.CloseNormalClosure, "client disconnected")
	if err := closedError(normal); err != nil {
		t.Fatalf("expected normal closure to end without error, got %v", err)
	}

	abnormal := events.NewClosed(events.ConnectionInfo{RunID: 1}, websocket.CloseAbnormalClosure, "connection reset")
	err := closedError(abnormal)
	if err == nil || !strings.Contains(err.Error(), "connection reset (1006)") {
		t.Fatalf("expected abnormal close error, got %v", err)
	}
}

package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHealthURL(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "ws://localhost:8000/ws", expected: "http://localhost:8000/health"},
		{input: "wss://api.example.com/live/ws?user_id=1", expected: "https://api.example.com/health"},
	}

	for _, testCase := range testCases {
		got, err := healthURL(testCase.input)
		if err != nil {
			t.Fatalf("expected no error for %q, got %v", testCase.input, err)
		}
		if got != testCase.expected {
			t.Fatalf("expected %q, got %q", testCase.expected, got)
		}
	}

	if _, err := healthURL("ftp://example.com"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func newHealthServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestCheckHealth(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		healthy bool
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"healthy"}`, healthy: true},
		{name: "unhealthy body", status: http.StatusOK, body: `{"status":"starting"}`},
		{name: "bad status", status: http.StatusServiceUnavailable, body: `{"status":"healthy"}`},
		{name: "bad body", status: http.StatusOK, body: `ok`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			url := newHealthServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					http.NotFound(w, r)
					return
				}
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			})
			client := newTestClient(t, url)

			err := client.CheckHealth(context.Background())
			if testCase.healthy && err != nil {
				t.Fatalf("expected healthy, got %v", err)
			}
			if !testCase.healthy && err == nil {
				t.Fatalf("expected health check to fail")
			}
		})
	}
}

func TestCheckHealthTimesOutOnHangingServer(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	url := newHealthServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	timeout := 100 * time.Millisecond
	client := newTestClient(t, url, WithHealthTimeout(timeout))

	started := time.Now()
	err := client.CheckHealth(context.Background())
	elapsed := time.Since(started)

	if err == nil {
		t.Fatalf("expected hanging health endpoint to fail")
	}
	if elapsed > timeout+time.Second {
		t.Fatalf("expected health check to give up after %v, took %v", timeout, elapsed)
	}
	if client.Ready() {
		t.Fatalf("expected client not to be ready")
	}
}

func TestHealthProbeRetriesUntilHealthy(t *testing.T) {
	var attempts atomic.Int32
	url := newHealthServer(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	readyChanges := make(chan bool, 4)
	client, err := NewClient(url,
		WithHealthInterval(10*time.Millisecond),
		WithOnReadyChanged(func(ready bool) { readyChanges <- ready }),
	)
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	defer client.Close()

	if ready := receive(t, readyChanges); !ready {
		t.Fatalf("expected ready change to true")
	}
	if !client.Ready() {
		t.Fatalf("expected client to be ready")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}

	time.Sleep(50 * time.Millisecond)
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected probe to stop after success, got %d attempts", got)
	}
}

func TestCloseCancelsHealthProbe(t *testing.T) {
	var attempts atomic.Int32
	url := newHealthServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client, err := NewClient(url, WithHealthInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}

	deadline := time.Now().Add(testTimeout)
	for attempts.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	client.Close()

	stopped := attempts.Load()
	time.Sleep(50 * time.Millisecond)
	if got := attempts.Load(); got != stopped {
		t.Fatalf("expected no attempts after close, got %d more", got-stopped)
	}
	if client.Ready() {
		t.Fatalf("expected client not to be ready")
	}
}

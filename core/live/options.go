package live

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-live/core/protocol"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultHealthTimeout  = 3 * time.Second
	defaultHealthInterval = 2 * time.Second
	defaultWriteTimeout   = 5 * time.Second
	defaultDialTimeout    = 10 * time.Second
)

type ClientOption func(*Client)

// WithUserID sets the caller id. A random id is generated when neither this
// nor the location supplies one.
func WithUserID(userID string) ClientOption {
	return func(c *Client) {
		c.identity.userID = userID
	}
}

func WithSessionID(sessionID string) ClientOption {
	return func(c *Client) {
		c.identity.sessionID = sessionID
	}
}

func WithProjectID(projectID string) ClientOption {
	return func(c *Client) {
		c.identity.projectID = projectID
	}
}

// WithLocation sets the address the client was launched from. Identifiers
// missing from the other options are recovered from it.
func WithLocation(location string) ClientOption {
	return func(c *Client) {
		c.location = location
	}
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithHeader sets extra headers sent with the WebSocket handshake.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		c.header = header.Clone()
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithHealthProbe enables or disables the background health probe. It is
// enabled by default.
func WithHealthProbe(enabled bool) ClientOption {
	return func(c *Client) {
		c.healthProbe = enabled
	}
}

func WithHealthInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.healthInterval = interval
		}
	}
}

func WithHealthTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.healthTimeout = timeout
		}
	}
}

// WithOnReadyChanged registers a callback for readiness changes. It runs
// on the client's event goroutine.
func WithOnReadyChanged(fn func(ready bool)) ClientOption {
	return func(c *Client) {
		c.onReadyChanged = fn
	}
}

func WithWriteTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.writeTimeout = timeout
		}
	}
}

func WithNormalizer(normalizer *protocol.Normalizer) ClientOption {
	return func(c *Client) {
		if normalizer != nil {
			c.normalizer = normalizer
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
			return operationName + " " + request.URL.Path
		}),
	)}
}

func defaultDialer() *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: defaultDialTimeout,
	}
}

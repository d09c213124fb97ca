package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-live/core/codec"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// Client maintains at most one live connection to the backend and
// publishes the canonical events it receives.
//
// Inbound frames, connection transitions and event dispatch all run on a
// single goroutine in arrival order. Event handlers must not call Close.
type Client struct {
	url      string
	location string
	header   http.Header

	dialer         *websocket.Dialer
	httpClient     *http.Client
	normalizer     *protocol.Normalizer
	logger         *slog.Logger
	writeTimeout   time.Duration
	healthProbe    bool
	healthInterval time.Duration
	healthTimeout  time.Duration
	onReadyChanged func(bool)

	bus  *events.Bus
	loop *loop

	mu        sync.Mutex
	identity  identity
	current   *Connection
	nextRunID uint64
	closed    bool

	ready        atomic.Bool
	healthCancel context.CancelFunc
	healthDone   chan struct{}
}

// NewClient creates a client for the WebSocket endpoint at rawURL. Unless
// disabled, a background health probe starts immediately.
func NewClient(rawURL string, opts ...ClientOption) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid live url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("invalid live url %q: scheme must be ws or wss", rawURL)
	}

	c := &Client{
		url:            rawURL,
		dialer:         defaultDialer(),
		httpClient:     defaultHTTPClient(),
		logger:         logger,
		writeTimeout:   defaultWriteTimeout,
		healthProbe:    true,
		healthInterval: defaultHealthInterval,
		healthTimeout:  defaultHealthTimeout,
		bus:            events.NewBus(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.normalizer == nil {
		c.normalizer = protocol.NewNormalizer(protocol.WithLogger(c.logger))
	}
	c.identity = c.identity.resolve(identityFromLocation(c.location))
	c.loop = newLoop()

	if c.healthProbe {
		ctx, cancel := context.WithCancel(context.Background())
		c.healthCancel = cancel
		c.healthDone = make(chan struct{})
		go func() {
			defer close(c.healthDone)
			c.runHealthProbe(ctx)
		}()
	}
	return c, nil
}

// Events returns the bus canonical events are published on.
func (c *Client) Events() *events.Bus { return c.bus }

func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity.userID
}

func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity.sessionID
}

// Current returns the most recent connection, or nil before the first
// Connect.
func (c *Client) Current() *Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the state of the current connection.
func (c *Client) State() State {
	if conn := c.Current(); conn != nil {
		return conn.State()
	}
	return StateIdle
}

func (c *Client) IsOpen() bool { return c.State().IsOpen() }

// Connect replaces any existing connection with a new one, sends the setup
// handshake and starts reading. It does not retry on failure.
func (c *Client) Connect(ctx context.Context) (*Connection, error) {
	ctx, span := tracer.Start(ctx, "connect live session")
	defer span.End()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.nextRunID++
	conn := newConnection(c.url, c.nextRunID, c.identity, c.writeTimeout)
	conn.setState(StateConnecting)
	previous := c.current
	c.current = conn
	c.mu.Unlock()

	// The replaced connection is always closed by the call that replaced it.
	if previous != nil {
		c.closeConnection(previous, websocket.CloseNormalClosure, "client disconnected")
	}

	span.SetAttributes(
		attribute.String("live.url", c.url),
		attribute.Int64("live.run_id", int64(conn.runID)),
	)

	ws, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		conn.transition(StateError, StateConnecting)
		if resp != nil {
			err = fmt.Errorf("failed to connect to %s (status %d): %w", c.url, resp.StatusCode, err)
		} else {
			err = fmt.Errorf("failed to connect to %s: %w", c.url, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, err
	}

	c.mu.Lock()
	closed, superseded := c.closed, c.current != conn
	c.mu.Unlock()
	if closed || superseded || !conn.transition(StateOpen, StateConnecting) {
		_ = ws.Close()
		switch {
		case closed:
			return nil, ErrClientClosed
		case superseded:
			return nil, ErrSuperseded
		default:
			return nil, ErrDisconnected
		}
	}
	conn.attach(ws)

	if err := c.sendSetup(ctx, conn); err != nil {
		conn.transition(StateError, StateOpen)
		_ = conn.closeTransport(websocket.CloseInternalServerErr, "")
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		return nil, err
	}

	c.emit(events.NewOpened(conn.Info()))
	go c.readLoop(conn)

	c.logger.Info("live connection opened", "url", c.url, "run_id", conn.runID, "session_id", conn.SessionID())
	return conn, nil
}

func (c *Client) sendSetup(ctx context.Context, conn *Connection) error {
	_, span := tracer.Start(ctx, "send setup")
	defer span.End()

	if err := conn.sendSetup(); err != nil {
		err = fmt.Errorf("failed to send setup: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Disconnect closes the current connection. It reports whether a live
// connection was closed.
func (c *Client) Disconnect() bool {
	conn := c.Current()
	if conn == nil {
		return false
	}
	return c.DisconnectConnection(conn)
}

// DisconnectConnection closes conn only if it is still the current
// connection. Stale references are ignored and report false.
func (c *Client) DisconnectConnection(conn *Connection) bool {
	if conn == nil || c.Current() != conn {
		return false
	}
	return c.closeConnection(conn, websocket.CloseNormalClosure, "client disconnected")
}

func (c *Client) closeConnection(conn *Connection, code int, reason string) bool {
	previous, ok := conn.markClosed()
	if !ok {
		return false
	}
	if err := conn.closeTransport(code, ""); err != nil {
		c.logger.Debug("failed to close transport", "error", err)
	}
	if previous != StateConnecting {
		c.emit(events.NewClosed(conn.Info(), code, reason))
	}
	return true
}

// Close disconnects, stops the health probe and waits for queued events to
// be dispatched. The client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.current
	c.mu.Unlock()

	if c.healthCancel != nil {
		c.healthCancel()
		<-c.healthDone
	}
	if conn != nil {
		c.closeConnection(conn, websocket.CloseNormalClosure, "client closed")
	}

	c.loop.stop()
	<-c.loop.done
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) emit(event events.Event) {
	c.loop.post(func() { c.bus.Publish(event) })
}

func (c *Client) readLoop(conn *Connection) {
	for {
		messageType, data, err := conn.readMessage()
		if err != nil {
			code, reason := closeDetails(err)
			if _, ok := conn.markClosed(); ok {
				_ = conn.closeTransport(code, "")
				c.logger.Info("live connection closed", "run_id", conn.runID, "code", code, "reason", reason)
				if c.Current() == conn {
					c.emit(events.NewClosed(conn.Info(), code, reason))
				}
			}
			return
		}

		framesReceived.Add(context.Background(), 1)
		c.loop.post(func() { c.handleFrame(conn, messageType, data) })
	}
}

// handleFrame runs on the event goroutine.
func (c *Client) handleFrame(conn *Connection, messageType int, data []byte) {
	frame, err := codec.Decode(messageType, data)
	if err != nil {
		framesDropped.Add(context.Background(), 1)
		c.logger.Warn("dropping undecodable frame", "error", err, "run_id", conn.runID)
		c.bus.Publish(events.NewLog(events.LogEntry{
			Level:   events.LogLevelWarn,
			Message: err.Error(),
		}))
		return
	}

	if sessionID, ok := protocol.SessionAck(frame.Payload); ok {
		c.adoptSessionID(conn, sessionID)
	}

	for _, event := range c.normalizer.Normalize(frame) {
		if _, ok := event.(events.SetupComplete); ok {
			conn.transition(StateSessionReady, StateOpen)
		}
		c.bus.Publish(event)
	}
}

func (c *Client) adoptSessionID(conn *Connection, sessionID string) {
	if conn.SessionID() == sessionID {
		return
	}
	conn.setSessionID(sessionID)

	c.mu.Lock()
	if c.current == conn {
		c.identity.sessionID = sessionID
	}
	c.mu.Unlock()
	c.logger.Debug("adopted server session id", "session_id", sessionID, "run_id", conn.runID)
}

// Chunk is one piece of realtime media.
type Chunk struct {
	MimeType string
	Data     []byte
}

// SendRealtimeInput forwards chunks on the current connection. When no
// connection is open the chunks are dropped without error; they are never
// queued. Write failures are returned.
func (c *Client) SendRealtimeInput(chunks ...Chunk) error {
	conn := c.Current()
	if conn == nil || !conn.IsOpen() {
		return nil
	}

	ctx := context.Background()
	for _, chunk := range chunks {
		if conn.pacer.track(time.Now()) {
			chunksAheadOfPace.Add(ctx, 1)
		}
		err := conn.send(map[string]any{"blob": &genai.Blob{MIMEType: chunk.MimeType, Data: chunk.Data}})
		if errors.Is(err, ErrNotConnected) {
			return nil
		} else if err != nil {
			return err
		}
		chunksSent.Add(ctx, 1)
	}
	return nil
}

// Send sends user content parts as one turn.
func (c *Client) Send(parts ...events.Part) error {
	content := &genai.Content{Role: string(genai.RoleUser), Parts: toGenAIParts(parts)}
	return c.SendFrame(map[string]any{"content": content})
}

// SendText is a convenience for Send with a single text part.
func (c *Client) SendText(text string) error {
	return c.Send(events.TextPart(text))
}

// SendToolResponse answers function calls requested by the model.
func (c *Client) SendToolResponse(responses ...*genai.FunctionResponse) error {
	return c.SendFrame(map[string]any{
		"toolResponse": &genai.LiveClientToolResponse{FunctionResponses: responses},
	})
}

// SendFrame sends an arbitrary frame on the current connection. It returns
// ErrNotConnected when no connection is open.
func (c *Client) SendFrame(frame any) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	conn := c.Current()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.send(frame)
}

func toGenAIParts(parts []events.Part) []*genai.Part {
	converted := make([]*genai.Part, 0, len(parts))
	for _, part := range parts {
		switch part.Kind {
		case events.PartText:
			converted = append(converted, &genai.Part{Text: part.Text})
		case events.PartInlineAudio, events.PartInlineData:
			converted = append(converted, &genai.Part{InlineData: &genai.Blob{MIMEType: part.MimeType, Data: part.Data}})
		case events.PartFunctionCall:
			if part.FunctionCall != nil {
				converted = append(converted, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				}})
			}
		}
	}
	return converted
}

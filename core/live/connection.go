package live

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-live/core/codec"
	"github.com/koscakluka/ema-live/core/events"
)

// Connection is one session attempt. A Connection is never reused: every
// Connect creates a new one, with fresh wrapping and pacing state.
type Connection struct {
	url   string
	runID uint64

	mu       sync.Mutex
	state    State
	identity identity

	// writeMu serializes writes and guards firstContentSent.
	writeMu          sync.Mutex
	ws               *websocket.Conn
	firstContentSent bool
	writeTimeout     time.Duration

	pacer *pacer
}

func newConnection(url string, runID uint64, id identity, writeTimeout time.Duration) *Connection {
	return &Connection{
		url:          url,
		runID:        runID,
		state:        StateIdle,
		identity:     id,
		writeTimeout: writeTimeout,
		pacer:        newPacer(),
	}
}

func (c *Connection) URL() string    { return c.url }
func (c *Connection) RunID() uint64  { return c.runID }
func (c *Connection) UserID() string { return c.getIdentity().userID }

func (c *Connection) SessionID() string { return c.getIdentity().sessionID }
func (c *Connection) ProjectID() string { return c.getIdentity().projectID }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) IsOpen() bool { return c.State().IsOpen() }

// Pacing returns a snapshot of the outbound audio pacing state.
func (c *Connection) Pacing() PacingState { return c.pacer.snapshot() }

// NextChunkInterval is the spacing the slow-start ramp expects before the
// next realtime chunk. Callers may use it to smooth their own cadence.
func (c *Connection) NextChunkInterval() time.Duration { return c.pacer.interval() }

// Info describes the connection for events.
func (c *Connection) Info() events.ConnectionInfo {
	id := c.getIdentity()
	return events.ConnectionInfo{
		URL:       c.url,
		RunID:     c.runID,
		UserID:    id.userID,
		SessionID: id.sessionID,
		ProjectID: id.projectID,
	}
}

func (c *Connection) getIdentity() identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Connection) setSessionID(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity.sessionID = sessionID
}

func (c *Connection) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// transition moves from one of the from states to to, reporting whether
// it happened.
func (c *Connection) transition(to State, from ...State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, state := range from {
		if c.state == state {
			c.state = to
			return true
		}
	}
	return false
}

// markClosed moves a live connection to StateClosed and returns the state
// it left. It reports false when the connection was already closed or
// failed.
func (c *Connection) markClosed() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateConnecting, StateOpen, StateSessionReady:
		previous := c.state
		c.state = StateClosed
		return previous, true
	default:
		return c.state, false
	}
}

func (c *Connection) attach(ws *websocket.Conn) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws = ws
	c.firstContentSent = false
}

// send writes a content frame. The first frame on the connection is wrapped
// with the session identifiers.
func (c *Connection) send(frame any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.IsOpen() || c.ws == nil {
		return ErrNotConnected
	}
	if !c.firstContentSent {
		frame = wrap(c.getIdentity(), frame)
	}
	if err := c.writeLocked(frame); err != nil {
		return err
	}
	c.firstContentSent = true
	return nil
}

// sendSetup writes the handshake frame. It is never wrapped.
func (c *Connection) sendSetup() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.ws == nil {
		return ErrNotConnected
	}
	return c.writeLocked(newSetupFrame(c.runID, c.getIdentity()))
}

func (c *Connection) writeLocked(frame any) error {
	data, err := codec.Encode(frame)
	if err != nil {
		return err
	}
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// closeTransport sends a close frame and closes the socket.
func (c *Connection) closeTransport(code int, text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.ws == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
	return c.ws.Close()
}

func (c *Connection) readMessage() (int, []byte, error) {
	c.writeMu.Lock()
	ws := c.ws
	c.writeMu.Unlock()
	if ws == nil {
		return 0, nil, ErrNotConnected
	}
	return ws.ReadMessage()
}

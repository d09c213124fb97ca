package events

const (
	// KindOpened identifies an opened transport.
	KindOpened Kind = "connection.opened"
	// KindClosed identifies a closed transport.
	KindClosed Kind = "connection.closed"
	// KindSetupComplete identifies the backend setup acknowledgement.
	KindSetupComplete Kind = "session.setup_complete"
)

// ConnectionInfo identifies the connection an event belongs to.
type ConnectionInfo struct {
	URL       string
	RunID     uint64
	UserID    string
	SessionID string
	ProjectID string
}

// Opened marks that the transport opened and the setup frame was sent.
type Opened struct {
	Base
	Connection ConnectionInfo
}

// NewOpened creates a connection opened event.
func NewOpened(connection ConnectionInfo) Opened {
	return Opened{Base: NewBase(KindOpened), Connection: connection}
}

// Closed marks that the transport closed.
type Closed struct {
	Base
	Connection ConnectionInfo
	// Code is the WebSocket close code, zero when the transport failed
	// without a close frame.
	Code   int
	Reason string
}

// NewClosed creates a connection closed event.
func NewClosed(connection ConnectionInfo, code int, reason string) Closed {
	return Closed{Base: NewBase(KindClosed), Connection: connection, Code: code, Reason: reason}
}

// SetupComplete marks the backend acknowledging the setup frame.
type SetupComplete struct{ Base }

// NewSetupComplete creates a setup complete event.
func NewSetupComplete() SetupComplete {
	return SetupComplete{Base: NewBase(KindSetupComplete)}
}

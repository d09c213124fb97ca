package live

import "errors"

var (
	// ErrNotConnected is returned by direct sends when no connection is open.
	ErrNotConnected = errors.New("live: not connected")
	// ErrClientClosed is returned once Close has been called.
	ErrClientClosed = errors.New("live: client closed")
	// ErrSuperseded is returned by Connect when another Connect replaced the
	// attempt while it was dialing.
	ErrSuperseded = errors.New("live: connection superseded")
	// ErrDisconnected is returned by Connect when Disconnect closed the
	// attempt while it was dialing.
	ErrDisconnected = errors.New("live: disconnected during connect")
)

package live

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	// StateSessionReady is entered once the backend acknowledges setup.
	StateSessionReady
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateSessionReady:
		return "session_ready"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsOpen reports whether sends are accepted in this state.
func (s State) IsOpen() bool {
	return s == StateOpen || s == StateSessionReady
}

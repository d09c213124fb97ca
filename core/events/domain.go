package events

import "github.com/koscakluka/ema-live/internal/utils"

const (
	// KindDomainEvent identifies an application-specific message.
	KindDomainEvent Kind = "domain.event"
	// KindStatusMessage identifies backend status text.
	KindStatusMessage Kind = "diagnostic.status"
	// KindLog identifies a developer-facing log entry.
	KindLog Kind = "diagnostic.log"
)

// DomainEvent carries an application-specific payload.
type DomainEvent struct {
	Base
	// Type is the payload's own discriminator, if it has one.
	Type    string
	Payload map[string]any
	// StageIndex is set when the payload reports conversation stage
	// progress.
	StageIndex *int
}

type DomainEventOption func(*DomainEvent)

func WithDomainEventType(eventType string) DomainEventOption {
	return func(e *DomainEvent) { e.Type = eventType }
}

func WithStageIndex(index int) DomainEventOption {
	return func(e *DomainEvent) { e.StageIndex = utils.Ptr(index) }
}

// NewDomainEvent creates a domain event.
func NewDomainEvent(payload map[string]any, opts ...DomainEventOption) DomainEvent {
	event := DomainEvent{Base: NewBase(KindDomainEvent), Payload: ClonePayload(payload)}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// StatusMessage carries backend status text.
type StatusMessage struct {
	Base
	Text string
}

// NewStatusMessage creates a status message event.
func NewStatusMessage(text string) StatusMessage {
	return StatusMessage{Base: NewBase(KindStatusMessage), Text: text}
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is a developer-facing diagnostic.
type LogEntry struct {
	Level   LogLevel
	Message string
	Payload map[string]any
}

// Log carries a developer-facing log entry.
type Log struct {
	Base
	Entry LogEntry
}

// NewLog creates a log event.
func NewLog(entry LogEntry) Log {
	entry.Payload = ClonePayload(entry.Payload)
	return Log{Base: NewBase(KindLog), Entry: entry}
}

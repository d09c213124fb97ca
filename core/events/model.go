package events

import "bytes"

const (
	// KindAudio identifies decoded model audio.
	KindAudio Kind = "model.audio"
	// KindContent identifies non-audio model content.
	KindContent Kind = "model.content"
	// KindInterrupted identifies an interruption of model output.
	KindInterrupted Kind = "turn.interrupted"
	// KindTurnComplete identifies the end of a model turn.
	KindTurnComplete Kind = "turn.complete"
)

// Origin names the channel a Content or ToolCall event arrived on.
type Origin string

const (
	OriginServer Origin = "server"
	OriginADK    Origin = "adk"
)

// Audio carries one decoded audio payload.
type Audio struct {
	Base
	MimeType string
	Data     []byte
}

// NewAudio creates a model audio event.
func NewAudio(mimeType string, data []byte) Audio {
	return Audio{Base: NewBase(KindAudio), MimeType: mimeType, Data: bytes.Clone(data)}
}

// Content carries the non-audio parts of a single envelope.
type Content struct {
	Base
	Parts  []Part
	Origin Origin
}

// NewContent creates a model content event.
func NewContent(parts []Part, origin Origin) Content {
	return Content{Base: NewBase(KindContent), Parts: cloneParts(parts), Origin: origin}
}

// Text joins the text parts of the content.
func (c Content) Text() string {
	var text string
	for _, part := range c.Parts {
		if part.Kind == PartText {
			text += part.Text
		}
	}
	return text
}

// Interrupted marks that in-progress model output must be discarded.
type Interrupted struct{ Base }

// NewInterrupted creates an interrupted event.
func NewInterrupted() Interrupted {
	return Interrupted{Base: NewBase(KindInterrupted)}
}

// TurnComplete marks the end of a model turn.
type TurnComplete struct{ Base }

// NewTurnComplete creates a turn complete event.
func NewTurnComplete() TurnComplete {
	return TurnComplete{Base: NewBase(KindTurnComplete)}
}

package session

import (
	"context"
	"log/slog"

	"github.com/koscakluka/ema-live/core/capture"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/playback"
)

// ToolHandler runs a function call requested by the model. The returned
// value is sent back as the call's output. ctx is cancelled when the model
// cancels the call or the session closes.
type ToolHandler func(ctx context.Context, call events.FunctionCall) (any, error)

type Option func(*Session)

// WithCapture streams microphone audio while the connection is open and the
// session is not muted.
func WithCapture(pipeline *capture.Pipeline) Option {
	return func(s *Session) {
		s.capture = pipeline
	}
}

// WithPlayback routes model audio to pipeline and flushes it on
// interruption.
func WithPlayback(pipeline *playback.Pipeline) Option {
	return func(s *Session) {
		s.playback = pipeline
	}
}

// WithToolHandler registers fn for function calls named name.
func WithToolHandler(name string, fn ToolHandler) Option {
	return func(s *Session) {
		if fn != nil {
			s.tools[name] = fn
		}
	}
}

// WithMuted starts the session with capture muted.
func WithMuted(muted bool) Option {
	return func(s *Session) {
		s.muted = muted
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

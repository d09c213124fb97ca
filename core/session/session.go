package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/capture"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
	"github.com/koscakluka/ema-live/core/playback"
)

// Session connects audio devices and tool handlers to a live client.
//
// Capture runs exactly while the connection is open and the session is not
// muted. Model audio goes to playback, and an interruption flushes playback
// before any later event is handled.
type Session struct {
	client   *live.Client
	capture  *capture.Pipeline
	playback *playback.Pipeline
	logger   *slog.Logger
	tools    map[string]ToolHandler

	ctx    context.Context
	cancel context.CancelFunc

	// captureMu serializes capture start and stop.
	captureMu sync.Mutex

	mu          sync.Mutex
	muted       bool
	openRunID   uint64
	open        bool
	stage       int
	hasStage    bool
	calls       map[string]context.CancelFunc
	unsubscribe []func()
	closed      bool

	toolsWG sync.WaitGroup
}

// New subscribes a session to client's events. The session does not own the
// client; closing the session leaves the client running.
func New(client *live.Client, opts ...Option) (*Session, error) {
	if client == nil {
		return nil, errors.New("session: client must not be nil")
	}

	s := &Session{
		client: client,
		logger: logger,
		tools:  map[string]ToolHandler{},
		calls:  map[string]context.CancelFunc{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	bus := client.Events()
	s.unsubscribe = []func(){
		events.Subscribe(bus, s.onOpened),
		events.Subscribe(bus, s.onClosed),
		events.Subscribe(bus, s.onAudio),
		events.Subscribe(bus, s.onInterrupted),
		events.Subscribe(bus, s.onToolCall),
		events.Subscribe(bus, s.onToolCallCancellation),
		events.Subscribe(bus, s.onDomainEvent),
	}
	return s, nil
}

func (s *Session) Client() *live.Client { return s.client }

// Connect opens a new connection on the underlying client.
func (s *Session) Connect(ctx context.Context) error {
	if _, err := s.client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect session: %w", err)
	}
	return nil
}

func (s *Session) Disconnect() bool {
	return s.client.Disconnect()
}

func (s *Session) SendText(text string) error {
	return s.client.SendText(text)
}

// SetMuted stops capture when muted and resumes it, if the connection is
// open, when unmuted.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	changed := s.muted != muted
	s.muted = muted
	s.mu.Unlock()

	if changed {
		s.logger.Debug("capture mute changed", "muted", muted)
		s.updateCapture()
	}
}

func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Capturing reports whether microphone audio is being streamed.
func (s *Session) Capturing() bool {
	return s.capture != nil && s.capture.IsRunning()
}

// Stage returns the most recently reported conversation stage.
func (s *Session) Stage() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage, s.hasStage
}

// Close detaches the session from the client, stops capture and cancels
// running tool calls. It must not be called from an event handler.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	s.cancel()
	s.toolsWG.Wait()

	var errs []error
	if s.capture != nil {
		s.captureMu.Lock()
		errs = append(errs, s.capture.Stop())
		s.captureMu.Unlock()
	}
	if s.playback != nil {
		s.playback.Flush()
	}
	return errors.Join(errs...)
}

func (s *Session) onOpened(e events.Opened) {
	s.mu.Lock()
	s.open = true
	s.openRunID = e.Connection.RunID
	s.mu.Unlock()
	s.updateCapture()
}

func (s *Session) onClosed(e events.Closed) {
	s.mu.Lock()
	if !s.open || s.openRunID != e.Connection.RunID {
		s.mu.Unlock()
		return
	}
	s.open = false
	s.mu.Unlock()
	s.updateCapture()
	s.cancelAllCalls()
}

func (s *Session) updateCapture() {
	if s.capture == nil {
		return
	}

	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	s.mu.Lock()
	shouldCapture := s.open && !s.muted && !s.closed
	s.mu.Unlock()

	switch {
	case shouldCapture && !s.capture.IsRunning():
		if err := s.capture.Start(s.ctx, s.sendChunk); err != nil {
			s.logger.Error("failed to start capture", "error", err)
		}
	case !shouldCapture && s.capture.IsRunning():
		if err := s.capture.Stop(); err != nil {
			s.logger.Error("failed to stop capture", "error", err)
		}
	}
}

func (s *Session) sendChunk(chunk capture.Chunk) {
	if err := s.client.SendRealtimeInput(live.Chunk(chunk)); err != nil {
		s.logger.Warn("failed to send audio chunk", "error", err)
	}
}

func (s *Session) onAudio(e events.Audio) {
	if s.playback == nil {
		return
	}

	expected := s.playback.EncodingInfo()
	if e.MimeType != "" {
		encoding, err := audio.ParseMimeType(e.MimeType, expected.SampleRate)
		if err != nil {
			s.logger.Debug("unrecognised audio mime type", "mime_type", e.MimeType, "error", err)
		} else if encoding != expected {
			// No resampling; the audio will play at the wrong rate.
			s.logger.Warn("model audio does not match playback format",
				"mime_type", e.MimeType,
				"playback_sample_rate", expected.SampleRate)
		}
	}
	s.playback.Enqueue(e.Data)
}

func (s *Session) onInterrupted(events.Interrupted) {
	if s.playback == nil {
		return
	}
	s.playback.Flush()
	interruptions.Add(s.ctx, 1)
}

func (s *Session) onDomainEvent(e events.DomainEvent) {
	if e.StageIndex == nil {
		return
	}

	s.mu.Lock()
	previous, had := s.stage, s.hasStage
	s.stage, s.hasStage = *e.StageIndex, true
	s.mu.Unlock()

	if !had || previous != *e.StageIndex {
		s.logger.Info("conversation stage changed", "stage", *e.StageIndex)
	}
}

package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
)

// DefaultChunkDuration is the amount of audio carried by one chunk.
const DefaultChunkDuration = 125 * time.Millisecond

// Source is a microphone that pushes raw audio to a callback.
type Source interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// Chunk is one fixed-size piece of captured audio.
type Chunk struct {
	MimeType string
	Data     []byte
}

// Pipeline turns a Source's irregular callbacks into fixed-size chunks.
//
// Whether the pipeline should run is decided by its owner. The pipeline
// only guarantees that after Stop, or after a restarting Start, no chunk
// reaches a previously attached listener.
type Pipeline struct {
	source        Source
	chunkDuration time.Duration
	logger        *slog.Logger

	// emitMu is held while chunks are delivered so Stop can wait out an
	// in-progress delivery.
	emitMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	running    bool
	pending    []byte
	chunkSize  int
	mimeType   string
	onChunk    func(Chunk)
}

type Option func(*Pipeline)

func WithChunkDuration(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.chunkDuration = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPipeline(source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:        source,
		chunkDuration: DefaultChunkDuration,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// EncodingInfo describes the chunks the pipeline emits.
func (p *Pipeline) EncodingInfo() audio.EncodingInfo {
	if p.source == nil {
		return audio.GetDefaultEncodingInfo()
	}
	if info := p.source.EncodingInfo(); !info.IsZero() {
		return info
	}
	return audio.GetDefaultEncodingInfo()
}

// Start begins emitting chunks to onChunk. A running pipeline is stopped
// first, detaching its previous listener.
func (p *Pipeline) Start(ctx context.Context, onChunk func(Chunk)) error {
	if p.source == nil {
		return errors.New("capture: no audio source configured")
	}
	if onChunk == nil {
		return errors.New("capture: onChunk must not be nil")
	}

	if p.IsRunning() {
		if err := p.Stop(); err != nil {
			p.logger.Warn("failed to stop capture before restart", "error", err)
		}
	}

	encoding := p.EncodingInfo()
	chunkSize := encoding.BytesFor(p.chunkDuration)
	if chunkSize <= 0 {
		return fmt.Errorf("capture: chunk duration %v is too short for %d Hz", p.chunkDuration, encoding.SampleRate)
	}

	p.mu.Lock()
	p.generation++
	generation := p.generation
	p.running = true
	p.pending = nil
	p.chunkSize = chunkSize
	p.mimeType = encoding.MimeType()
	p.onChunk = onChunk
	p.mu.Unlock()

	if err := p.source.StartCapture(ctx, func(data []byte) { p.onAudio(generation, data) }); err != nil {
		p.detach(generation)
		return fmt.Errorf("failed to start capture: %w", err)
	}
	p.logger.Debug("capture started", "chunk_bytes", chunkSize, "mime_type", encoding.MimeType())
	return nil
}

// Stop halts emission and detaches the listener. Buffered audio shorter than
// one chunk is discarded.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.detachLocked()
	p.mu.Unlock()

	// Wait for a delivery that passed the generation check to finish.
	p.emitMu.Lock()
	p.emitMu.Unlock()

	if err := p.source.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop capture: %w", err)
	}
	p.logger.Debug("capture stopped")
	return nil
}

func (p *Pipeline) detach(generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation == generation {
		p.detachLocked()
	}
}

func (p *Pipeline) detachLocked() {
	p.generation++
	p.running = false
	p.pending = nil
	p.onChunk = nil
}

func (p *Pipeline) onAudio(generation uint64, data []byte) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if generation != p.generation || !p.running {
		p.mu.Unlock()
		return
	}
	p.pending = append(p.pending, data...)

	var chunks [][]byte
	for len(p.pending) >= p.chunkSize {
		chunks = append(chunks, bytes.Clone(p.pending[:p.chunkSize]))
		p.pending = p.pending[p.chunkSize:]
	}
	if len(p.pending) == 0 {
		p.pending = nil
	}
	onChunk := p.onChunk
	mimeType := p.mimeType
	p.mu.Unlock()

	for _, chunk := range chunks {
		onChunk(Chunk{MimeType: mimeType, Data: chunk})
	}
}

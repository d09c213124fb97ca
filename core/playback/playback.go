package playback

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
)

// DefaultCapacity is the amount of audio buffered before the oldest audio
// is dropped.
const DefaultCapacity = 30 * time.Second

// Clearer is implemented by sinks that keep their own in-flight audio.
type Clearer interface {
	ClearBuffer()
}

// Pipeline buffers inbound model audio until the output device pulls it.
//
// The buffer is bounded. When full, the oldest audio is dropped so the
// newest speech is the speech that plays.
type Pipeline struct {
	encoding       audio.EncodingInfo
	bufferDuration time.Duration
	capacity       int
	logger         *slog.Logger

	mu      sync.Mutex
	buffer  []byte
	level   float64
	dropped int
	sinks   []Clearer

	updateSignal chan struct{}
}

type Option func(*Pipeline)

// WithEncoding sets the format of enqueued audio.
func WithEncoding(encoding audio.EncodingInfo) Option {
	return func(p *Pipeline) {
		if !encoding.IsZero() {
			p.encoding = encoding
		}
	}
}

// WithCapacity bounds the buffer by duration of audio.
func WithCapacity(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.bufferDuration = d
		}
	}
}

// WithSink registers a device whose own buffer must be cleared on Flush.
func WithSink(sink Clearer) Option {
	return func(p *Pipeline) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
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

func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		encoding:       audio.GetDefaultOutputEncodingInfo(),
		bufferDuration: DefaultCapacity,
		logger:         logger,
		updateSignal:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.capacity = p.encoding.BytesFor(p.bufferDuration)
	if size := p.encoding.Format.ByteSize(); p.capacity < size {
		p.capacity = size
	}
	return p
}

func (p *Pipeline) EncodingInfo() audio.EncodingInfo { return p.encoding }

// Capacity is the maximum number of buffered bytes.
func (p *Pipeline) Capacity() int { return p.capacity }

// Enqueue appends decoded audio to the playback buffer.
func (p *Pipeline) Enqueue(pcm []byte) {
	if len(pcm) == 0 {
		return
	}

	p.mu.Lock()
	p.buffer = append(p.buffer, pcm...)
	overflow := len(p.buffer) - p.capacity
	if overflow > 0 {
		overflow = p.alignUp(overflow)
		p.buffer = append(p.buffer[:0:0], p.buffer[overflow:]...)
		p.dropped += overflow
	}
	p.mu.Unlock()

	if overflow > 0 {
		bytesDropped.Add(context.Background(), int64(overflow))
		p.logger.Debug("playback buffer full, dropped oldest audio", "bytes", overflow)
	}
	p.signalUpdate()
}

// AddSink registers a device whose own buffer must be cleared on Flush.
func (p *Pipeline) AddSink(sink Clearer) {
	if sink == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, sink)
}

// Flush discards buffered audio and audio held by registered sinks.
func (p *Pipeline) Flush() {
	p.mu.Lock()
	discarded := len(p.buffer)
	p.buffer = nil
	p.level = 0
	sinks := append([]Clearer(nil), p.sinks...)
	p.mu.Unlock()

	for _, sink := range sinks {
		sink.ClearBuffer()
	}
	flushes.Add(context.Background(), 1)
	p.logger.Debug("playback flushed", "discarded_bytes", discarded)
	p.signalUpdate()
}

// Fill copies buffered audio into out and fills the rest with silence. It
// returns the number of bytes of real audio copied. Fill is meant to be
// called from the output device's callback.
func (p *Pipeline) Fill(out []byte) int {
	p.mu.Lock()
	n := copy(out, p.buffer)
	p.buffer = p.buffer[n:]
	if len(p.buffer) == 0 {
		p.buffer = nil
	}
	p.level = rms(out[:n], p.encoding)
	p.mu.Unlock()

	silence := p.encoding.SilenceValue()
	for i := n; i < len(out); i++ {
		out[i] = silence
	}
	return n
}

// Level is the RMS level, between 0 and 1, of the most recently played
// block. It does not affect playback.
func (p *Pipeline) Level() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Buffered is the duration of audio waiting to be played.
func (p *Pipeline) Buffered() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoding.Duration(len(p.buffer))
}

// Dropped is the total number of bytes discarded by the overflow policy.
func (p *Pipeline) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Updates signals after Enqueue and Flush. Sinks that push audio can wait
// on it instead of polling.
func (p *Pipeline) Updates() <-chan struct{} { return p.updateSignal }

func (p *Pipeline) signalUpdate() {
	select {
	case p.updateSignal <- struct{}{}:
	default:
	}
}

func (p *Pipeline) alignUp(n int) int {
	size := p.encoding.Format.ByteSize()
	if size <= 1 {
		return n
	}
	if rem := n % size; rem != 0 {
		n += size - rem
	}
	if n > len(p.buffer) {
		n = len(p.buffer)
	}
	return n
}

func rms(block []byte, encoding audio.EncodingInfo) float64 {
	if encoding.Format != audio.EncodingLinear16 || len(block) < 2 {
		return 0
	}

	samples := len(block) / 2
	var sum float64
	for i := 0; i < samples; i++ {
		sample := float64(int16(binary.LittleEndian.Uint16(block[i*2:])))
		sum += sample * sample
	}
	level := math.Sqrt(sum/float64(samples)) / math.MaxInt16
	return math.Min(level, 1)
}

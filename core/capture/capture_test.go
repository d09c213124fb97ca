package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
)

type fakeSource struct {
	mu        sync.Mutex
	listeners []func([]byte)
	starts    int
	stops     int
	startErr  error
	encoding  audio.EncodingInfo
}

func (s *fakeSource) StartCapture(_ context.Context, onAudio func([]byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.starts++
	s.listeners = append(s.listeners, onAudio)
	return nil
}

func (s *fakeSource) StopCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *fakeSource) EncodingInfo() audio.EncodingInfo { return s.encoding }

// push delivers audio to every listener ever attached, the way a device
// that was not told about a restart would.
func (s *fakeSource) push(data []byte) {
	s.mu.Lock()
	listeners := append([]func([]byte){}, s.listeners...)
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(data)
	}
}

func TestPipelineEmitsFixedSizeChunks(t *testing.T) {
	source := &fakeSource{encoding: audio.GetDefaultEncodingInfo()}
	pipeline := NewPipeline(source)

	var chunks []Chunk
	if err := pipeline.Start(context.Background(), func(c Chunk) { chunks = append(chunks, c) }); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	source.push(make([]byte, 3000))
	if len(chunks) != 0 {
		t.Fatalf("expected no chunk before 4000 bytes, got %d", len(chunks))
	}
	source.push(make([]byte, 6000))

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if len(chunk.Data) != 4000 {
			t.Fatalf("expected 4000 byte chunks, got %d", len(chunk.Data))
		}
		if chunk.MimeType != "audio/pcm;rate=16000" {
			t.Fatalf("expected mime type audio/pcm;rate=16000, got %q", chunk.MimeType)
		}
	}
}

func TestPipelineChunkDurationOption(t *testing.T) {
	source := &fakeSource{encoding: audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}}
	pipeline := NewPipeline(source, WithChunkDuration(20*time.Millisecond))

	var sizes []int
	_ = pipeline.Start(context.Background(), func(c Chunk) { sizes = append(sizes, len(c.Data)) })
	source.push(make([]byte, 330))

	if len(sizes) != 2 || sizes[0] != 160 {
		t.Fatalf("expected two 160 byte chunks, got %v", sizes)
	}
}

func TestStopHaltsEmission(t *testing.T) {
	source := &fakeSource{encoding: audio.GetDefaultEncodingInfo()}
	pipeline := NewPipeline(source)

	count := 0
	_ = pipeline.Start(context.Background(), func(Chunk) { count++ })
	source.push(make([]byte, 4000))
	if err := pipeline.Stop(); err != nil {
		t.Fatalf("expected stop to succeed, got %v", err)
	}
	source.push(make([]byte, 8000))

	if count != 1 {
		t.Fatalf("expected 1 chunk, got %d", count)
	}
	if pipeline.IsRunning() {
		t.Fatalf("expected pipeline to be stopped")
	}
	if source.stops != 1 {
		t.Fatalf("expected source to be stopped once, got %d", source.stops)
	}
	if err := pipeline.Stop(); err != nil || source.stops != 1 {
		t.Fatalf("expected repeated stop to be a no-op, got %v and %d stops", err, source.stops)
	}
}

func TestRestartDetachesPreviousListener(t *testing.T) {
	source := &fakeSource{encoding: audio.GetDefaultEncodingInfo()}
	pipeline := NewPipeline(source)

	first, second := 0, 0
	_ = pipeline.Start(context.Background(), func(Chunk) { first++ })
	_ = pipeline.Start(context.Background(), func(Chunk) { second++ })

	source.push(make([]byte, 4000))

	if first != 0 {
		t.Fatalf("expected old listener to be detached, got %d chunks", first)
	}
	if second != 1 {
		t.Fatalf("expected exactly one chunk for the new listener, got %d", second)
	}
	if source.stops != 1 || source.starts != 2 {
		t.Fatalf("expected stop before restart, got %d starts and %d stops", source.starts, source.stops)
	}
}

func TestStartFailureLeavesPipelineStopped(t *testing.T) {
	source := &fakeSource{encoding: audio.GetDefaultEncodingInfo(), startErr: errors.New("no device")}
	pipeline := NewPipeline(source)

	if err := pipeline.Start(context.Background(), func(Chunk) {}); err == nil {
		t.Fatalf("expected start to fail")
	}
	if pipeline.IsRunning() {
		t.Fatalf("expected pipeline not to be running")
	}
}

func TestStartWithoutSource(t *testing.T) {
	if err := NewPipeline(nil).Start(context.Background(), func(Chunk) {}); err == nil {
		t.Fatalf("expected error without source")
	}
}

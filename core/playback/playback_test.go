package playback

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
)

type fakeSink struct {
	clears int
}

func (s *fakeSink) ClearBuffer() { s.clears++ }

func samples(values ...int16) []byte {
	out := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func TestDefaultCapacity(t *testing.T) {
	p := NewPipeline()

	if expected := 24000 * 2 * 30; p.Capacity() != expected {
		t.Fatalf("expected capacity %d, got %d", expected, p.Capacity())
	}
	if p.EncodingInfo() != audio.GetDefaultOutputEncodingInfo() {
		t.Fatalf("expected default output encoding, got %+v", p.EncodingInfo())
	}
}

func TestFillCopiesInOrderAndPadsWithSilence(t *testing.T) {
	p := NewPipeline()
	p.Enqueue([]byte{1, 2})
	p.Enqueue([]byte{3, 4})

	out := []byte{9, 9, 9, 9, 9, 9}
	n := p.Fill(out)

	if n != 4 {
		t.Fatalf("expected 4 bytes copied, got %d", n)
	}
	if !bytes.Equal(out, []byte{1, 2, 3, 4, 0, 0}) {
		t.Fatalf("expected audio followed by silence, got %v", out)
	}
	if p.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %v", p.Buffered())
	}
}

func TestFillPartial(t *testing.T) {
	p := NewPipeline()
	p.Enqueue([]byte{1, 2, 3, 4, 5, 6})

	out := make([]byte, 4)
	if n := p.Fill(out); n != 4 {
		t.Fatalf("expected 4 bytes copied, got %d", n)
	}
	out = make([]byte, 4)
	if n := p.Fill(out); n != 2 {
		t.Fatalf("expected 2 bytes copied, got %d", n)
	}
	if !bytes.Equal(out, []byte{5, 6, 0, 0}) {
		t.Fatalf("expected remaining audio, got %v", out)
	}
}

func TestMulawSilence(t *testing.T) {
	p := NewPipeline(WithEncoding(audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}))

	out := make([]byte, 3)
	p.Fill(out)

	if !bytes.Equal(out, []byte{0xFF, 0xFF, 0xFF}) {
		t.Fatalf("expected mulaw silence, got %v", out)
	}
}

func TestOverflowDropsOldestWholeSamples(t *testing.T) {
	// 1ms at 8kHz linear16 is 16 bytes.
	p := NewPipeline(
		WithEncoding(audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingLinear16}),
		WithCapacity(time.Millisecond),
	)
	if p.Capacity() != 16 {
		t.Fatalf("expected capacity 16, got %d", p.Capacity())
	}

	first := bytes.Repeat([]byte{1}, 16)
	p.Enqueue(first)
	p.Enqueue([]byte{2, 2, 2})

	if p.Dropped() != 4 {
		t.Fatalf("expected 4 dropped bytes, got %d", p.Dropped())
	}

	out := make([]byte, 20)
	n := p.Fill(out)
	if n != 15 {
		t.Fatalf("expected 15 buffered bytes, got %d", n)
	}
	if !bytes.Equal(out[12:15], []byte{2, 2, 2}) {
		t.Fatalf("expected newest audio to survive, got %v", out[:n])
	}
}

func TestFlushClearsBufferAndSinks(t *testing.T) {
	sink := &fakeSink{}
	p := NewPipeline(WithSink(sink))
	p.Enqueue(samples(1000, -1000))
	p.Fill(make([]byte, 2))

	p.Flush()

	if p.Buffered() != 0 {
		t.Fatalf("expected empty buffer after flush, got %v", p.Buffered())
	}
	if p.Level() != 0 {
		t.Fatalf("expected level reset, got %f", p.Level())
	}
	if sink.clears != 1 {
		t.Fatalf("expected sink to be cleared once, got %d", sink.clears)
	}

	out := []byte{7, 7}
	if n := p.Fill(out); n != 0 {
		t.Fatalf("expected no audio after flush, got %d bytes", n)
	}
}

func TestLevel(t *testing.T) {
	p := NewPipeline()
	p.Enqueue(samples(math.MaxInt16, -math.MaxInt16, math.MaxInt16, -math.MaxInt16))

	p.Fill(make([]byte, 8))
	if level := p.Level(); math.Abs(level-1) > 1e-9 {
		t.Fatalf("expected full scale level, got %f", level)
	}

	p.Fill(make([]byte, 8))
	if level := p.Level(); level != 0 {
		t.Fatalf("expected silence level, got %f", level)
	}
}

func TestBuffered(t *testing.T) {
	p := NewPipeline()
	p.Enqueue(make([]byte, audio.GetDefaultOutputEncodingInfo().BytesFor(250*time.Millisecond)))

	if p.Buffered() != 250*time.Millisecond {
		t.Fatalf("expected 250ms buffered, got %v", p.Buffered())
	}
}

func TestUpdatesSignal(t *testing.T) {
	p := NewPipeline()
	p.Enqueue([]byte{1, 2})

	select {
	case <-p.Updates():
	default:
		t.Fatalf("expected an update signal after enqueue")
	}

	p.Enqueue(nil)
	select {
	case <-p.Updates():
		t.Fatalf("expected no signal for empty audio")
	default:
	}
}

func TestAddSink(t *testing.T) {
	p := NewPipeline()
	sink := &fakeSink{}
	p.AddSink(sink)
	p.AddSink(nil)

	p.Flush()
	if sink.clears != 1 {
		t.Fatalf("expected sink added after construction to be cleared, got %d", sink.clears)
	}
}

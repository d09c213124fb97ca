package live

import (
	"testing"
	"time"
)

func TestChunkIntervalRamp(t *testing.T) {
	for sent := 0; sent < rampChunks; sent++ {
		if got := chunkInterval(sent); got != initialChunkInterval {
			t.Fatalf("expected %v after %d chunks, got %v", initialChunkInterval, sent, got)
		}
	}
	if got := chunkInterval(rampChunks); got != steadyChunkInterval {
		t.Fatalf("expected %v after ramp, got %v", steadyChunkInterval, got)
	}
}

func TestPacerTracksWithoutDropping(t *testing.T) {
	p := newPacer()
	start := time.Unix(100, 0)

	for i := 0; i < 5; i++ {
		p.track(start)
	}

	state := p.snapshot()
	if state.ChunksSentSinceConnect != 5 {
		t.Fatalf("expected 5 chunks tracked, got %d", state.ChunksSentSinceConnect)
	}
	if state.ChunksAheadOfPace != 4 {
		t.Fatalf("expected 4 chunks ahead of pace, got %d", state.ChunksAheadOfPace)
	}
	if !state.LastSendTimestamp.Equal(start) {
		t.Fatalf("expected last send %v, got %v", start, state.LastSendTimestamp)
	}
}

func TestPacerOnPaceChunks(t *testing.T) {
	p := newPacer()
	now := time.Unix(100, 0)

	for i := 0; i < rampChunks; i++ {
		if p.track(now) {
			t.Fatalf("expected chunk %d to be on pace during ramp", i)
		}
		now = now.Add(initialChunkInterval + time.Millisecond)
	}
	for i := 0; i < 5; i++ {
		if p.track(now) {
			t.Fatalf("expected chunk %d to be on pace after ramp", i)
		}
		now = now.Add(steadyChunkInterval + time.Millisecond)
	}
	if got := p.interval(); got != steadyChunkInterval {
		t.Fatalf("expected steady interval, got %v", got)
	}
}

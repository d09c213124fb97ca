package live

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// rampChunks is the number of chunks paced at the initial interval
	// after a connection opens.
	rampChunks           = 10
	initialChunkInterval = 300 * time.Millisecond
	steadyChunkInterval  = 125 * time.Millisecond
)

// PacingState describes outbound realtime audio on one connection.
type PacingState struct {
	ChunksSentSinceConnect int
	LastSendTimestamp      time.Time
	// ChunksAheadOfPace counts chunks sent sooner than the pacing interval
	// allowed. They are sent regardless.
	ChunksAheadOfPace int
}

// pacer tracks the slow-start ramp of realtime audio. It never delays or
// drops a chunk.
type pacer struct {
	mu      sync.Mutex
	state   PacingState
	initial *rate.Limiter
	steady  *rate.Limiter
}

func newPacer() *pacer {
	return &pacer{
		initial: rate.NewLimiter(rate.Every(initialChunkInterval), 1),
		steady:  rate.NewLimiter(rate.Every(steadyChunkInterval), 1),
	}
}

// track records one chunk sent at now and reports whether it arrived
// ahead of pace.
func (p *pacer) track(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	limiter := p.steady
	if p.state.ChunksSentSinceConnect < rampChunks {
		limiter = p.initial
	}
	ahead := !limiter.AllowN(now, 1)

	p.state.ChunksSentSinceConnect++
	p.state.LastSendTimestamp = now
	if ahead {
		p.state.ChunksAheadOfPace++
	}
	return ahead
}

func (p *pacer) snapshot() PacingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// interval is the spacing the ramp expects before the next chunk.
func (p *pacer) interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return chunkInterval(p.state.ChunksSentSinceConnect)
}

func chunkInterval(chunksSent int) time.Duration {
	if chunksSent < rampChunks {
		return initialChunkInterval
	}
	return steadyChunkInterval
}

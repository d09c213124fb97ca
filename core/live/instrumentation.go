package live

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/ema-live/core/live"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	framesReceived      = counter("ema_live.live.frames.received", "Inbound frames read from the transport")
	framesDropped       = counter("ema_live.live.frames.dropped", "Inbound frames dropped because they could not be decoded")
	chunksSent          = counter("ema_live.live.chunks.sent", "Realtime audio chunks written to the transport")
	chunksAheadOfPace   = counter("ema_live.live.chunks.ahead_of_pace", "Realtime audio chunks sent faster than the pacing interval")
	healthProbeAttempts = counter("ema_live.live.health.attempts", "Health probe requests issued")
)

func counter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

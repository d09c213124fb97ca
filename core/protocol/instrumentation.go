package protocol

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/ema-live/core/protocol"

var (
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	framesNormalized = counter("ema_live.protocol.frames.normalized", "Inbound frames classified into canonical events")
	framesUnmatched  = counter("ema_live.protocol.frames.unmatched", "Inbound frames that matched no classification rule")
	eventsEmitted    = counter("ema_live.protocol.events.emitted", "Canonical events emitted by the normalizer")
)

func counter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

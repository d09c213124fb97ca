package session

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scopeName = "github.com/koscakluka/ema-live/core/session"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	toolCalls       = counter("ema_live.session.tool_calls", "Tool calls dispatched to handlers")
	toolCallsFailed = counter("ema_live.session.tool_calls.failed", "Tool calls answered with an error")
	interruptions   = counter("ema_live.session.interruptions", "Interruptions that flushed playback")
)

func counter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

func metricAttributes(tool string) metric.AddOption {
	return metric.WithAttributes(attribute.String("tool", tool))
}

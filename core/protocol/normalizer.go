package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/koscakluka/ema-live/core/codec"
	"github.com/koscakluka/ema-live/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Normalizer classifies decoded inbound frames into canonical events.
//
// A Normalizer holds no per-frame state and may be shared.
type Normalizer struct {
	logger *slog.Logger
	// defaultAudioMimeType labels raw binary audio frames.
	defaultAudioMimeType string
}

type Option func(*Normalizer)

func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithRawAudioMimeType sets the mime type reported for binary frames that
// carry raw audio instead of JSON.
func WithRawAudioMimeType(mimeType string) Option {
	return func(n *Normalizer) {
		n.defaultAudioMimeType = mimeType
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger:               logger,
		defaultAudioMimeType: "audio/pcm;rate=24000",
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// rule is one entry of the ordered classifier. The first rule whose match
// reports true handles the payload.
type rule struct {
	name   string
	match  func(codec.Payload) bool
	handle func(*Normalizer, codec.Payload) []events.Event
}

var rules = []rule{
	{name: "tool_call", match: isToolCall, handle: (*Normalizer).toolCall},
	{name: "tool_call_cancellation", match: isToolCallCancellation, handle: (*Normalizer).toolCallCancellation},
	{name: "setup_complete", match: isSetupComplete, handle: (*Normalizer).setupComplete},
	{name: "server_content", match: isServerContent, handle: (*Normalizer).serverContent},
	{name: "domain_event", match: isDomainEvent, handle: (*Normalizer).domainEvent},
	{name: "status", match: isStatusOrError, handle: (*Normalizer).statusOrError},
	{name: "typed_message", match: isTypedMessage, handle: (*Normalizer).typedMessage},
}

// Normalize converts one decoded frame into zero or more canonical events,
// in emission order.
func (n *Normalizer) Normalize(frame codec.Frame) []events.Event {
	ctx := context.Background()

	if frame.Payload == nil {
		if len(frame.Audio) == 0 {
			return nil
		}
		framesNormalized.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", "raw_audio")))
		return n.emitted(ctx, []events.Event{events.NewAudio(n.defaultAudioMimeType, frame.Audio)})
	}

	for _, r := range rules {
		if !r.match(frame.Payload) {
			continue
		}
		framesNormalized.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", r.name)))
		return n.emitted(ctx, r.handle(n, frame.Payload))
	}

	if isHousekeeping(frame.Payload) {
		n.logger.Debug("dropping housekeeping frame", "keys", payloadKeys(frame.Payload))
		return nil
	}

	framesUnmatched.Add(ctx, 1)
	n.logger.Warn("unmatched inbound frame", "keys", payloadKeys(frame.Payload))
	return nil
}

func (n *Normalizer) emitted(ctx context.Context, out []events.Event) []events.Event {
	for _, event := range out {
		eventsEmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(event.Kind()))))
	}
	return out
}

func isToolCall(payload codec.Payload) bool {
	return present(payload, keysToolCall...)
}

func isToolCallCancellation(payload codec.Payload) bool {
	return present(payload, keysToolCallCancellation...)
}

func isSetupComplete(payload codec.Payload) bool {
	return present(payload, keysSetupComplete...)
}

func isServerContent(payload codec.Payload) bool {
	_, ok := lookupMap(payload, keysServerContent...)
	return ok
}

// isDomainEvent recognizes application events forwarded from the agent
// runtime, either wrapped or carrying the runtime's own fields.
func isDomainEvent(payload codec.Payload) bool {
	if _, ok := lookupMap(payload, keysADKEvent...); ok {
		return true
	}
	if has(payload, "author") || has(payload, keysInvocationID...) {
		return true
	}
	if has(payload, keysInputTranscription...) || has(payload, keysOutputTranscription...) {
		return true
	}
	if actions, ok := lookupMap(payload, "actions"); ok && has(actions, keysStateDelta...) {
		return true
	}
	if content, ok := lookupMap(payload, "content"); ok && has(content, "parts") {
		return true
	}
	return false
}

func isStatusOrError(payload codec.Payload) bool {
	return has(payload, "status") || has(payload, "error")
}

func isTypedMessage(payload codec.Payload) bool {
	messageType, ok := lookupString(payload, "type")
	return ok && messageType != "" && !isHousekeepingType(messageType)
}

var housekeepingTypes = []string{"ping", "pong", "keepalive", "keep_alive", "heartbeat", "ack"}

func isHousekeepingType(messageType string) bool {
	return slices.Contains(housekeepingTypes, strings.ToLower(messageType))
}

// isHousekeeping reports transport chatter that should never be reported as
// unmatched.
func isHousekeeping(payload codec.Payload) bool {
	if _, ok := SessionAck(payload); ok {
		return true
	}
	messageType, ok := lookupString(payload, "type")
	return ok && isHousekeepingType(messageType)
}

// SessionAck reports whether the payload is the post-setup acknowledgement
// carrying only the server-assigned session id.
func SessionAck(payload codec.Payload) (string, bool) {
	if len(payload) != 1 {
		return "", false
	}
	sessionID, ok := lookupString(payload, keysSessionID...)
	return sessionID, ok && sessionID != ""
}

func (n *Normalizer) toolCall(payload codec.Payload) []events.Event {
	toolCall, _ := lookupMap(payload, keysToolCall...)
	calls, errs := toFunctionCalls(parseFunctionCalls(lookupSlice(toolCall, keysFunctionCalls...)))
	return append(n.decodeErrors(errs), events.NewToolCall(calls, events.OriginServer))
}

func (n *Normalizer) toolCallCancellation(payload codec.Payload) []events.Event {
	cancellation, _ := lookupMap(payload, keysToolCallCancellation...)
	var ids []string
	for _, id := range lookupSlice(cancellation, "ids") {
		if typed, ok := id.(string); ok {
			ids = append(ids, typed)
		}
	}
	return []events.Event{events.NewToolCallCancellation(ids)}
}

func (n *Normalizer) setupComplete(codec.Payload) []events.Event {
	return []events.Event{events.NewSetupComplete()}
}

func (n *Normalizer) serverContent(payload codec.Payload) []events.Event {
	content, _ := lookupMap(payload, keysServerContent...)

	if flagged(content, "interrupted") {
		return []events.Event{events.NewInterrupted()}
	}

	var out []events.Event
	if flagged(content, keysTurnComplete...) {
		out = append(out, events.NewTurnComplete())
	}

	if modelTurn, ok := lookupMap(content, keysModelTurn...); ok {
		parts, errs := parseParts(lookupSlice(modelTurn, "parts"))
		out = append(out, n.decodeErrors(errs)...)

		audioParts, rest := splitAudio(parts)
		out = append(out, audioEvents(audioParts)...)
		if len(rest) > 0 {
			out = append(out, events.NewContent(rest, events.OriginServer))
		}
	}

	out = append(out, transcripts(content)...)
	return out
}

func (n *Normalizer) domainEvent(payload codec.Payload) []events.Event {
	event := payload
	if inner, ok := lookupMap(payload, keysADKEvent...); ok {
		event = inner
	}

	var opts []events.DomainEventOption
	if messageType, ok := lookupString(event, "type"); ok {
		opts = append(opts, events.WithDomainEventType(messageType))
	}
	if stage, ok := stageIndex(event); ok {
		opts = append(opts, events.WithStageIndex(stage))
	}
	out := []events.Event{events.NewDomainEvent(payload, opts...)}
	out = append(out, transcripts(event)...)

	if content, ok := lookupMap(event, "content"); ok {
		parts, errs := parseParts(lookupSlice(content, "parts"))
		out = append(out, n.decodeErrors(errs)...)

		calls, parts := splitFunctionCalls(parts)
		if len(calls) > 0 {
			out = append(out, events.NewToolCall(calls, events.OriginADK))
		}
		audioParts, rest := splitAudio(parts)
		out = append(out, audioEvents(audioParts)...)
		if len(rest) > 0 {
			out = append(out, events.NewContent(rest, events.OriginADK))
		}
	}

	if flagged(event, keysTurnComplete...) {
		out = append(out, events.NewTurnComplete())
	}
	if flagged(event, "interrupted") {
		out = append(out, events.NewInterrupted())
	}
	return out
}

func (n *Normalizer) statusOrError(payload codec.Payload) []events.Event {
	var out []events.Event
	if status, ok := lookup(payload, "status"); ok {
		out = append(out, events.NewStatusMessage(stringify(status)))
	}
	if errValue, ok := lookup(payload, "error"); ok {
		message := stringify(errValue)
		n.logger.Warn("backend reported an error", "error", message)
		out = append(out, events.NewLog(events.LogEntry{
			Level:   events.LogLevelError,
			Message: message,
			Payload: payload,
		}))
	}
	return out
}

func (n *Normalizer) typedMessage(payload codec.Payload) []events.Event {
	messageType, _ := lookupString(payload, "type")
	opts := []events.DomainEventOption{events.WithDomainEventType(messageType)}
	if stage, ok := stageIndex(payload); ok {
		opts = append(opts, events.WithStageIndex(stage))
	}
	return []events.Event{events.NewDomainEvent(payload, opts...)}
}

func (n *Normalizer) decodeErrors(errs []error) []events.Event {
	out := make([]events.Event, 0, len(errs))
	for _, err := range errs {
		n.logger.Warn("dropping undecodable part", "error", err)
		out = append(out, events.NewLog(events.LogEntry{
			Level:   events.LogLevelWarn,
			Message: err.Error(),
		}))
	}
	return out
}

// audioEvents raises one Audio event per part. Empty payloads are dropped.
func audioEvents(parts []events.Part) []events.Event {
	var out []events.Event
	for _, part := range parts {
		if len(part.Data) == 0 {
			continue
		}
		out = append(out, events.NewAudio(part.MimeType, part.Data))
	}
	return out
}

func transcripts(payload map[string]any) []events.Event {
	var out []events.Event
	if text, finished, ok := transcription(payload, keysInputTranscription...); ok {
		out = append(out, events.NewInputTranscript(text, finished))
	}
	if text, finished, ok := transcription(payload, keysOutputTranscription...); ok {
		out = append(out, events.NewOutputTranscript(text, finished))
	}
	return out
}

// transcription reads a transcription field that is either a bare string or
// an object with text and finished fields.
func transcription(payload map[string]any, keys ...string) (text string, finished bool, ok bool) {
	value, ok := lookup(payload, keys...)
	if !ok {
		return "", false, false
	}
	switch typed := value.(type) {
	case string:
		return typed, false, typed != ""
	case map[string]any:
		text, _ = lookupString(typed, "text")
		finished = flagged(typed, "finished")
		return text, finished, text != "" || finished
	default:
		return "", false, false
	}
}

func stageIndex(payload map[string]any) (int, bool) {
	if actions, ok := lookupMap(payload, "actions"); ok {
		if delta, ok := lookupMap(actions, keysStateDelta...); ok {
			if index, ok := lookupInt(delta, keysCurrentStageIndex...); ok {
				return index, true
			}
		}
	}
	if index, ok := lookupInt(payload, keysCurrentStageIndex...); ok {
		return index, true
	}
	return lookupInt(payload, keysCurrentStage...)
}

func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case map[string]any:
		if message, ok := lookupString(typed, "message"); ok {
			return message
		}
	}
	return fmt.Sprint(value)
}

func payloadKeys(payload codec.Payload) []string {
	return slices.Sorted(maps.Keys(payload))
}

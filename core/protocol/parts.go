package protocol

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/codec"
	"github.com/koscakluka/ema-live/core/events"
	"google.golang.org/genai"
)

// parseParts converts a wire parts array. Parts whose data cannot be
// decoded are skipped and reported through errs.
func parseParts(raw []any) (parts []events.Part, errs []error) {
	for i, item := range raw {
		partPayload, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Errorf("part %d is not an object", i))
			continue
		}

		if inline, ok := lookupMap(partPayload, keysInlineData...); ok {
			mimeType, _ := lookupString(inline, keysMimeType...)
			encoded, _ := lookupString(inline, "data")
			data, err := codec.DecodeBase64(encoded)
			if err != nil {
				errs = append(errs, fmt.Errorf("part %d: %w", i, err))
				continue
			}
			parts = append(parts, events.InlineDataPart(mimeType, data))
			continue
		}

		if call, ok := lookupMap(partPayload, keysFunctionCall...); ok {
			converted, err := toFunctionCall(parseFunctionCall(call))
			if err != nil {
				errs = append(errs, fmt.Errorf("part %d: %w", i, err))
				continue
			}
			parts = append(parts, events.FunctionCallPart(converted))
			continue
		}

		if text, ok := lookupString(partPayload, "text"); ok {
			parts = append(parts, events.TextPart(text))
		}
	}
	return parts, errs
}

func parseFunctionCall(payload map[string]any) genai.FunctionCall {
	call := genai.FunctionCall{}
	call.ID, _ = lookupString(payload, "id")
	call.Name, _ = lookupString(payload, "name")
	call.Args, _ = lookupMap(payload, "args", "arguments")
	return call
}

func parseFunctionCalls(raw []any) []genai.FunctionCall {
	calls := make([]genai.FunctionCall, 0, len(raw))
	for _, item := range raw {
		if payload, ok := item.(map[string]any); ok {
			calls = append(calls, parseFunctionCall(payload))
		}
	}
	return calls
}

// toFunctionCall converts a wire call. Arguments are deep copied later by
// the event constructors.
func toFunctionCall(wireCall genai.FunctionCall) (events.FunctionCall, error) {
	var call events.FunctionCall
	if err := copier.Copy(&call, &wireCall); err != nil {
		return events.FunctionCall{}, fmt.Errorf("error copying function call %q: %w", wireCall.Name, err)
	}
	return call, nil
}

func toFunctionCalls(wireCalls []genai.FunctionCall) (calls []events.FunctionCall, errs []error) {
	calls = make([]events.FunctionCall, 0, len(wireCalls))
	for _, wireCall := range wireCalls {
		call, err := toFunctionCall(wireCall)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		calls = append(calls, call)
	}
	return calls, errs
}

// splitAudio separates audio parts from everything else, keeping order
// within each group.
func splitAudio(parts []events.Part) (audioParts, rest []events.Part) {
	for _, part := range parts {
		if part.IsAudio() || audio.IsAudioMimeType(part.MimeType) {
			audioParts = append(audioParts, part)
			continue
		}
		rest = append(rest, part)
	}
	return audioParts, rest
}

func splitFunctionCalls(parts []events.Part) (calls []events.FunctionCall, rest []events.Part) {
	for _, part := range parts {
		if part.IsFunctionCall() {
			calls = append(calls, *part.FunctionCall)
			continue
		}
		rest = append(rest, part)
	}
	return calls, rest
}

package protocol

import (
	"strconv"
	"strings"
)

// spellings returns the snake_case name followed by its camelCase form.
func spellings(snake string) []string {
	parts := strings.Split(snake, "_")
	if len(parts) == 1 {
		return []string{snake}
	}
	camel := parts[0]
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		camel += strings.ToUpper(part[:1]) + part[1:]
	}
	return []string{snake, camel}
}

var (
	keysToolCall             = spellings("tool_call")
	keysToolCallCancellation = spellings("tool_call_cancellation")
	keysSetupComplete        = spellings("setup_complete")
	keysServerContent        = spellings("server_content")
	keysModelTurn            = spellings("model_turn")
	keysTurnComplete         = spellings("turn_complete")
	keysInputTranscription   = spellings("input_transcription")
	keysOutputTranscription  = spellings("output_transcription")
	keysFunctionCalls        = spellings("function_calls")
	keysFunctionCall         = spellings("function_call")
	keysInlineData           = spellings("inline_data")
	keysMimeType             = spellings("mime_type")
	keysStateDelta           = spellings("state_delta")
	keysCurrentStageIndex    = spellings("current_stage_index")
	keysCurrentStage         = spellings("current_stage")
	keysInvocationID         = spellings("invocation_id")
	keysSessionID            = spellings("session_id")
	keysADKEvent             = []string{"adk_event", "adkEvent", "adkevent"}
)

// lookup returns the first non-null value stored under any of keys.
func lookup(payload map[string]any, keys ...string) (any, bool) {
	if payload == nil {
		return nil, false
	}
	for _, key := range keys {
		if value, ok := payload[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func has(payload map[string]any, keys ...string) bool {
	_, ok := lookup(payload, keys...)
	return ok
}

func lookupMap(payload map[string]any, keys ...string) (map[string]any, bool) {
	value, ok := lookup(payload, keys...)
	if !ok {
		return nil, false
	}
	typed, ok := value.(map[string]any)
	return typed, ok
}

func lookupSlice(payload map[string]any, keys ...string) []any {
	value, _ := lookup(payload, keys...)
	typed, _ := value.([]any)
	return typed
}

func lookupString(payload map[string]any, keys ...string) (string, bool) {
	value, ok := lookup(payload, keys...)
	if !ok {
		return "", false
	}
	typed, ok := value.(string)
	return typed, ok
}

// flagged reports whether a boolean flag is set. Backends spell true as a
// JSON boolean, and occasionally as a string.
func flagged(payload map[string]any, keys ...string) bool {
	value, ok := lookup(payload, keys...)
	if !ok {
		return false
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(typed)
		return err == nil && parsed
	default:
		return false
	}
}

// present reports whether a marker key is set to anything but false.
func present(payload map[string]any, keys ...string) bool {
	value, ok := lookup(payload, keys...)
	if !ok {
		return false
	}
	if typed, isBool := value.(bool); isBool {
		return typed
	}
	return true
}

func lookupInt(payload map[string]any, keys ...string) (int, bool) {
	value, ok := lookup(payload, keys...)
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case float64:
		return int(typed), true
	case int:
		return typed, true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		return parsed, err == nil
	default:
		return 0, false
	}
}

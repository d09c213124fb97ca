package events

import "testing"

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "opened", event: NewOpened(ConnectionInfo{RunID: 1}), expected: KindOpened},
		{name: "closed", event: NewClosed(ConnectionInfo{}, 1000, "bye"), expected: KindClosed},
		{name: "setup complete", event: NewSetupComplete(), expected: KindSetupComplete},
		{name: "audio", event: NewAudio("audio/pcm", []byte{1}), expected: KindAudio},
		{name: "content", event: NewContent([]Part{TextPart("hi")}, OriginServer), expected: KindContent},
		{name: "interrupted", event: NewInterrupted(), expected: KindInterrupted},
		{name: "turn complete", event: NewTurnComplete(), expected: KindTurnComplete},
		{name: "tool call", event: NewToolCall([]FunctionCall{{ID: "1", Name: "lookup"}}, OriginServer), expected: KindToolCall},
		{name: "tool call cancellation", event: NewToolCallCancellation([]string{"1"}), expected: KindToolCallCancellation},
		{name: "input transcript", event: NewInputTranscript("hello", true), expected: KindInputTranscript},
		{name: "output transcript", event: NewOutputTranscript("hello", false), expected: KindOutputTranscript},
		{name: "domain event", event: NewDomainEvent(map[string]any{"type": "x"}), expected: KindDomainEvent},
		{name: "status message", event: NewStatusMessage("ok"), expected: KindStatusMessage},
		{name: "log", event: NewLog(LogEntry{Level: LogLevelWarn, Message: "m"}), expected: KindLog},
	}

	seen := map[Kind]string{}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
		if other, ok := seen[testCase.expected]; ok {
			t.Fatalf("expected %q and %q to have distinct kinds", other, testCase.name)
		}
		seen[testCase.expected] = testCase.name
	}
}

func TestAudioCopiesData(t *testing.T) {
	data := []byte{1, 2, 3}
	event := NewAudio("audio/pcm", data)
	data[0] = 9

	if event.Data[0] != 1 {
		t.Fatalf("expected audio data to be copied, got %v", event.Data)
	}
}

func TestDomainEventPayloadIsDeepCopied(t *testing.T) {
	payload := map[string]any{
		"actions": map[string]any{"state_delta": map[string]any{"current_stage_index": 2.0}},
		"list":    []any{"a", map[string]any{"b": 1.0}},
	}
	event := NewDomainEvent(payload, WithDomainEventType("adk"), WithStageIndex(2))

	payload["actions"].(map[string]any)["state_delta"].(map[string]any)["current_stage_index"] = 5.0
	payload["list"].([]any)[1].(map[string]any)["b"] = 7.0

	delta := event.Payload["actions"].(map[string]any)["state_delta"].(map[string]any)
	if delta["current_stage_index"] != 2.0 {
		t.Fatalf("expected nested payload to be copied, got %v", delta["current_stage_index"])
	}
	if got := event.Payload["list"].([]any)[1].(map[string]any)["b"]; got != 1.0 {
		t.Fatalf("expected nested list to be copied, got %v", got)
	}
	if event.Type != "adk" {
		t.Fatalf("expected type %q, got %q", "adk", event.Type)
	}
	if event.StageIndex == nil || *event.StageIndex != 2 {
		t.Fatalf("expected stage index 2, got %v", event.StageIndex)
	}
}

func TestContentClonesParts(t *testing.T) {
	call := FunctionCall{ID: "c1", Name: "lookup", Args: map[string]any{"q": "x"}}
	parts := []Part{TextPart("a"), FunctionCallPart(call), InlineDataPart("image/png", []byte{1})}
	event := NewContent(parts, OriginADK)

	parts[0] = TextPart("changed")
	parts[1].FunctionCall.Args["q"] = "y"
	parts[2].Data[0] = 9

	if event.Parts[0].Text != "a" {
		t.Fatalf("expected first part text %q, got %q", "a", event.Parts[0].Text)
	}
	if event.Parts[1].FunctionCall.Args["q"] != "x" {
		t.Fatalf("expected function call args to be copied, got %v", event.Parts[1].FunctionCall.Args)
	}
	if event.Parts[2].Data[0] != 1 {
		t.Fatalf("expected inline data to be copied, got %v", event.Parts[2].Data)
	}
	if event.Origin != OriginADK {
		t.Fatalf("expected origin %q, got %q", OriginADK, event.Origin)
	}
}

func TestInlineDataPartDetectsAudio(t *testing.T) {
	if part := InlineDataPart("Audio/PCM;rate=24000", nil); !part.IsAudio() {
		t.Fatalf("expected audio part, got kind %q", part.Kind)
	}
	if part := InlineDataPart("image/png", nil); part.IsAudio() {
		t.Fatalf("expected non-audio part, got kind %q", part.Kind)
	}
}

func TestContentTextJoinsTextParts(t *testing.T) {
	event := NewContent([]Part{TextPart("hel"), InlineDataPart("image/png", nil), TextPart("lo")}, OriginServer)
	if got := event.Text(); got != "hello" {
		t.Fatalf("expected text %q, got %q", "hello", got)
	}
}

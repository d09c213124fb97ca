package events

import "slices"

const (
	// KindToolCall identifies requested function calls.
	KindToolCall Kind = "tool.call"
	// KindToolCallCancellation identifies cancelled function calls.
	KindToolCallCancellation Kind = "tool.call_cancellation"
)

// ToolCall carries function calls requested by the model.
//
// Calls from OriginServer await a client response. Calls from OriginADK
// were already executed by the agent runtime and are informational.
type ToolCall struct {
	Base
	Calls  []FunctionCall
	Origin Origin
}

// NewToolCall creates a tool call event.
func NewToolCall(calls []FunctionCall, origin Origin) ToolCall {
	cloned := make([]FunctionCall, len(calls))
	for i, call := range calls {
		cloned[i] = call.clone()
	}
	return ToolCall{Base: NewBase(KindToolCall), Calls: cloned, Origin: origin}
}

// ToolCallCancellation carries ids of calls that should no longer run.
type ToolCallCancellation struct {
	Base
	IDs []string
}

// NewToolCallCancellation creates a tool call cancellation event.
func NewToolCallCancellation(ids []string) ToolCallCancellation {
	return ToolCallCancellation{Base: NewBase(KindToolCallCancellation), IDs: slices.Clone(ids)}
}

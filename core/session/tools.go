package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
)

var errUnknownTool = errors.New("unknown tool")

// onToolCall runs calls the model asked the client to execute. Calls
// reported by the agent runtime already ran on the backend and are only
// logged.
func (s *Session) onToolCall(e events.ToolCall) {
	if e.Origin != events.OriginServer {
		for _, call := range e.Calls {
			s.logger.Debug("agent runtime function call", "tool", call.Name, "call_id", call.ID)
		}
		return
	}

	for _, call := range e.Calls {
		key := call.ID
		if key == "" {
			key = uuid.NewString()
		}
		ctx, ok := s.trackCall(key)
		if !ok {
			return
		}

		go func() {
			defer s.toolsWG.Done()
			defer s.untrackCall(key)
			s.runTool(ctx, call)
		}()
	}
}

func (s *Session) onToolCallCancellation(e events.ToolCallCancellation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range e.IDs {
		if cancel, ok := s.calls[id]; ok {
			cancel()
			delete(s.calls, id)
			s.logger.Debug("tool call cancelled", "call_id", id)
		}
	}
}

// trackCall registers a running call. The caller must call toolsWG.Done
// when the call finishes.
func (s *Session) trackCall(id string) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}

	if previous, ok := s.calls[id]; ok {
		previous()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.calls[id] = cancel
	s.toolsWG.Add(1)
	return ctx, true
}

func (s *Session) untrackCall(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.calls[id]; ok {
		cancel()
		delete(s.calls, id)
	}
}

func (s *Session) cancelAllCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.calls {
		cancel()
		delete(s.calls, id)
	}
}

func (s *Session) runTool(ctx context.Context, call events.FunctionCall) {
	ctx, span := tracer.Start(ctx, "call tool")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	)
	toolCalls.Add(ctx, 1, metricAttributes(call.Name))

	output, err := s.callTool(ctx, call)
	if ctx.Err() != nil {
		// Cancelled calls are not answered.
		span.SetStatus(codes.Error, "cancelled")
		return
	}

	response := &genai.FunctionResponse{ID: call.ID, Name: call.Name}
	if err != nil {
		err = fmt.Errorf("failed to call tool: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		toolCallsFailed.Add(ctx, 1, metricAttributes(call.Name))
		s.logger.Warn("tool call failed", "tool", call.Name, "call_id", call.ID, "error", err)
		response.Response = map[string]any{"error": err.Error()}
	} else {
		response.Response = map[string]any{"output": output}
	}

	if err := s.client.SendToolResponse(response); errors.Is(err, live.ErrNotConnected) {
		s.logger.Debug("dropped tool response, connection closed", "tool", call.Name, "call_id", call.ID)
	} else if err != nil {
		s.logger.Error("failed to send tool response", "tool", call.Name, "call_id", call.ID, "error", err)
	}
}

func (s *Session) callTool(ctx context.Context, call events.FunctionCall) (output any, err error) {
	handler, ok := s.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownTool, call.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", call.Name, r)
		}
	}()
	return handler(ctx, call)
}

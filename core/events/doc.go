// Package events defines the canonical live-session event contract.
//
// Every inbound protocol message, whatever its wire spelling, is normalized
// into one of the events below. Event kinds are grouped by receiver-facing
// namespaces:
//
//   - connection.*
//   - session.*
//   - model.*
//   - turn.*
//   - tool.*
//   - transcript.*
//   - domain.*
//   - diagnostic.*
//
// connection events
//
//   - Opened (connection.opened): transport opened and setup frame sent.
//   - Closed (connection.closed): transport closed; carries a best-effort
//     human-readable reason.
//
// session events
//
//   - SetupComplete (session.setup_complete): backend acknowledged setup.
//
// model events
//
//   - Audio (model.audio): one decoded audio payload for playback.
//   - Content (model.content): non-audio content parts, tagged with the
//     channel they arrived on ("server" or "adk").
//
// turn events
//
//   - Interrupted (turn.interrupted): in-progress model output must be
//     discarded. Playback must be flushed synchronously.
//   - TurnComplete (turn.complete): the model finished its turn.
//
// tool events
//
//   - ToolCall (tool.call): function calls requested by the model.
//   - ToolCallCancellation (tool.call_cancellation): previously requested
//     calls that should no longer run.
//
// transcript events
//
//   - InputTranscript (transcript.input): transcription of user speech.
//   - OutputTranscript (transcript.output): transcription of model speech.
//
// domain events
//
//   - DomainEvent (domain.event): application-specific message riding the
//     same channel, e.g. stage progress.
//
// diagnostic events
//
//   - StatusMessage (diagnostic.status): backend status text.
//   - Log (diagnostic.log): developer-facing log entry, never fatal.
//
// Events are immutable once constructed: constructors copy the slices and
// payload maps they are given.
package events

// Package codec converts live-session wire frames to and from in-memory
// values.
//
// Text and binary WebSocket frames share one JSON decode path. A binary
// frame that does not hold a JSON object is treated as raw audio.
package codec

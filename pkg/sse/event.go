// Package sse provides a small, purpose-built SSE (Server-Sent Events)
// decoder for the novelist generator endpoints. It turns an upstream
// text/event-stream body into a sequence of typed events and can optionally
// tee the raw bytes to a second writer for debugging.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "time"

// DefaultPartialName is the event name that marks continuation records.
// Records carrying data without an "event:" field are reported under this
// name as well.
const DefaultPartialName = "chunks"

// Event is one decoded unit of an event stream. It is one of Message,
// Partial or Reconnect.
type Event interface {
	event()
}

// Message is a complete, named record: an "event:" field followed by its
// "data:" payload.
type Message struct {
	// Name is the SSE event type from the "event:" field.
	Name string

	// Data is the concatenated contents of all "data:" lines for this record,
	// joined with "\n".
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// Partial is a continuation fragment belonging to the most recent stage of
// the stream.
type Partial struct {
	Name string
	Data string
}

// Reconnect is a "retry:" directive from the server.
type Reconnect struct {
	Interval time.Duration
}

func (Message) event()   {}
func (Partial) event()   {}
func (Reconnect) event() {}

package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// Reader decodes SSE records from a source io.Reader. When constructed with
// NewTeeReader it also copies the source bytes unchanged (line endings
// included) to a destination io.Writer, so a caller can capture the exact
// stream while consuming typed events.
//
// ┌──────────────────┐   ┌──────────────────────────────────┐
// │ source io.Reader │──▶│ destination io.Writer (optional) │
// └──────────────────┘   └──────────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │  Reader.Next()   │
// └──────────────────┘
// │
// ▼
// ┌───────────────────────────────┐
// │ Message | Partial | Reconnect │
// └───────────────────────────────┘
type Reader struct {
	scanner     *bufio.Scanner
	partialName string

	// record accumulates fields for the record being built in the current scan.
	record  record
	pending []Event
}

type record struct {
	name     string
	data     strings.Builder
	id       string
	retry    time.Duration
	hasRetry bool
	hasData  bool
	dirty    bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithPartialName overrides the event name treated as a continuation record.
// Defaults to DefaultPartialName.
func WithPartialName(name string) Option {
	return func(r *Reader) {
		if name != "" {
			r.partialName = name
		}
	}
}

// NewReader returns a Reader that decodes SSE events from src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	r := &Reader{
		scanner:     scanner,
		partialName: DefaultPartialName,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewTeeReader returns a Reader that decodes SSE events from src and writes
// all raw bytes through to dest as they are read. A failed write surfaces as
// an error from Next.
func NewTeeReader(src io.Reader, dest io.Writer, opts ...Option) *Reader {
	return NewReader(io.TeeReader(src, dest), opts...)
}

// Next returns the next decoded event. It blocks until a complete record is
// available (terminated by a blank line in the stream). Next returns nil, nil
// when the source is exhausted.
//
// A record that carries both a "retry:" field and data yields a Reconnect
// first and the data event on the following call.
func (r *Reader) Next() (Event, error) {
	if ev := r.popPending(); ev != nil {
		return ev, nil
	}

	for r.scanner.Scan() {
		raw := r.scanner.Text()

		// A blank line dispatches the current record.
		if raw == "" {
			if r.dispatch() {
				return r.popPending(), nil
			}

			// Blank line with no accumulated fields: leading blank lines or
			// keep-alive newlines.
			continue
		}

		if strings.HasPrefix(raw, ":") {
			continue
		}

		r.parseLine(raw)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended without a trailing blank line.
	if r.dispatch() {
		return r.popPending(), nil
	}

	return nil, nil
}

// parseLine accumulates a single non-empty, non-comment line into the
// current record. The first space after the colon is stripped if present.
func (r *Reader) parseLine(line string) {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		value = strings.TrimPrefix(after, " ")
	} else {
		field = line
	}

	switch field {
	case "data":
		if r.record.hasData {
			r.record.data.WriteByte('\n')
		}
		r.record.data.WriteString(value)
		r.record.hasData = true
		r.record.dirty = true
	case "event":
		r.record.name = value
		r.record.dirty = true
	case "id":
		r.record.id = value
		r.record.dirty = true
	case "retry":
		ms, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return
		}
		r.record.retry = time.Duration(ms) * time.Millisecond
		r.record.hasRetry = true
		r.record.dirty = true
	default:
		// Unknown fields are ignored.
	}
}

// dispatch converts the accumulated record into pending events and resets
// it. Returns false when there was nothing to dispatch.
func (r *Reader) dispatch() bool {
	rec := &r.record
	if !rec.dirty {
		return false
	}

	if rec.hasRetry {
		r.pending = append(r.pending, Reconnect{Interval: rec.retry})
	}

	switch {
	case rec.name == r.partialName || (rec.name == "" && rec.hasData):
		r.pending = append(r.pending, Partial{Name: r.partialName, Data: rec.data.String()})
	case rec.name != "":
		r.pending = append(r.pending, Message{Name: rec.name, Data: rec.data.String(), ID: rec.id})
	}

	r.record = record{}

	return len(r.pending) > 0
}

func (r *Reader) popPending() Event {
	if len(r.pending) == 0 {
		return nil
	}
	ev := r.pending[0]
	r.pending = r.pending[1:]
	return ev
}

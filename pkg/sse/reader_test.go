package sse

import (
	"bytes"
	"errors"
	"strings"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// drain reads every event from r until exhaustion.
func drain(r *Reader) []Event {
	var events []Event
	for {
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		if ev == nil {
			return events
		}
		events = append(events, ev)
	}
}

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		Context("with named records", func() {
			It("decodes a mid_point record as a Message", func() {
				r := NewReader(strings.NewReader("event: mid_point\ndata: Outlining\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(Equal(Message{Name: "mid_point", Data: "Outlining"}))

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("keeps the event ID", func() {
				r := NewReader(strings.NewReader("id: 42\nevent: result\ndata: {}\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(Equal(Message{Name: "result", Data: "{}", ID: "42"}))
			})

			It("joins multiple data lines with newline", func() {
				r := NewReader(strings.NewReader("event: result\ndata: {\ndata: \"id\": 1\ndata: }\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.(Message).Data).To(Equal("{\n\"id\": 1\n}"))
			})

			It("reports a named record without data", func() {
				r := NewReader(strings.NewReader("event: ping\n\n"))

				Expect(drain(r)).To(Equal([]Event{Message{Name: "ping"}}))
			})
		})

		Context("with continuation records", func() {
			It("decodes chunks records as Partial", func() {
				r := NewReader(strings.NewReader("event: chunks\ndata: Once\n\n"))

				Expect(drain(r)).To(Equal([]Event{Partial{Name: "chunks", Data: "Once"}}))
			})

			It("treats unnamed data records as chunks", func() {
				r := NewReader(strings.NewReader("data: Once\n\ndata:  upon\n\n"))

				Expect(drain(r)).To(Equal([]Event{
					Partial{Name: "chunks", Data: "Once"},
					Partial{Name: "chunks", Data: " upon"},
				}))
			})

			It("honours a custom partial name", func() {
				r := NewReader(strings.NewReader("event: delta\ndata: a\n\ndata: b\n\n"), WithPartialName("delta"))

				Expect(drain(r)).To(Equal([]Event{
					Partial{Name: "delta", Data: "a"},
					Partial{Name: "delta", Data: "b"},
				}))
			})

			It("keeps escaped newlines encoded", func() {
				r := NewReader(strings.NewReader("data: line%0Aline\n\n"))

				Expect(drain(r)).To(Equal([]Event{Partial{Name: "chunks", Data: "line%0Aline"}}))
			})
		})

		Context("with retry directives", func() {
			It("decodes a retry-only record as Reconnect", func() {
				r := NewReader(strings.NewReader("retry: 3000\n\n"))

				Expect(drain(r)).To(Equal([]Event{Reconnect{Interval: 3 * time.Second}}))
			})

			It("yields Reconnect before the data of the same record", func() {
				r := NewReader(strings.NewReader("retry: 250\nevent: mid_point\ndata: Drafting\n\n"))

				Expect(drain(r)).To(Equal([]Event{
					Reconnect{Interval: 250 * time.Millisecond},
					Message{Name: "mid_point", Data: "Drafting"},
				}))
			})

			It("ignores a malformed retry value", func() {
				r := NewReader(strings.NewReader("retry: soon\ndata: hello\n\n"))

				Expect(drain(r)).To(Equal([]Event{Partial{Name: "chunks", Data: "hello"}}))
			})
		})

		Context("with SSE comments", func() {
			It("ignores comment lines", func() {
				r := NewReader(strings.NewReader(": keep-alive\ndata: hello\n\n"))

				Expect(drain(r)).To(Equal([]Event{Partial{Name: "chunks", Data: "hello"}}))
			})
		})

		Context("with partial reads", func() {
			It("reassembles records split across single-byte reads", func() {
				input := "event: mid_point\ndata: Outlining\n\ndata: Once\n\n"
				r := NewReader(iotest.OneByteReader(strings.NewReader(input)))

				Expect(drain(r)).To(Equal([]Event{
					Message{Name: "mid_point", Data: "Outlining"},
					Partial{Name: "chunks", Data: "Once"},
				}))
			})

			It("tolerates CRLF line endings", func() {
				r := NewReader(strings.NewReader("event: mid_point\r\ndata: Outlining\r\n\r\n"))

				Expect(drain(r)).To(Equal([]Event{Message{Name: "mid_point", Data: "Outlining"}}))
			})
		})

		Context("tee capture", func() {
			It("forwards all bytes including delimiters to dest", func() {
				input := ": comment\nevent: mid_point\ndata: Outlining\n\ndata: Once\n\n"
				dst := &bytes.Buffer{}
				r := NewTeeReader(strings.NewReader(input), dst)

				drain(r)
				Expect(dst.String()).To(Equal(input))
			})

			It("keeps CRLF line endings and an unterminated tail", func() {
				input := "event: mid_point\r\ndata: A\r\n\r\ndata: tail"
				dst := &bytes.Buffer{}
				r := NewTeeReader(strings.NewReader(input), dst)

				Expect(drain(r)).To(Equal([]Event{
					Message{Name: "mid_point", Data: "A"},
					Partial{Name: DefaultPartialName, Data: "tail"},
				}))
				Expect(dst.String()).To(Equal(input))
			})

			It("reports a failed write to dest", func() {
				r := NewTeeReader(strings.NewReader("data: A\n\n"), failingWriter{})

				_, err := r.Next()
				Expect(err).To(MatchError(errCaptureFull))
			})
		})

		Context("edge cases", func() {
			It("returns nil on empty input", func() {
				r := NewReader(strings.NewReader(""))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("returns nil on input with only blank lines", func() {
				r := NewReader(strings.NewReader("\n\n\n"))

				Expect(drain(r)).To(BeEmpty())
			})

			It("yields a record when the stream ends without a trailing blank line", func() {
				r := NewReader(strings.NewReader("event: result\ndata: {\"id\":1}"))

				Expect(drain(r)).To(Equal([]Event{Message{Name: "result", Data: "{\"id\":1}"}}))
			})

			It("ignores unknown fields", func() {
				r := NewReader(strings.NewReader("foo: bar\ndata: hello\n\n"))

				Expect(drain(r)).To(Equal([]Event{Partial{Name: "chunks", Data: "hello"}}))
			})

			It("propagates source errors", func() {
				boom := errors.New("connection reset")
				r := NewReader(iotest.ErrReader(boom))

				ev, err := r.Next()
				Expect(err).To(MatchError(boom))
				Expect(ev).To(BeNil())
			})
		})
	})
})

var errCaptureFull = errors.New("capture full")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errCaptureFull }

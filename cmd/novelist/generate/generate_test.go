package generatecmder

import (
	"bytes"
	"errors"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/novelist/pkg/generation"
)

var _ = Describe("progress", func() {
	It("announces each stage once", func() {
		var buf bytes.Buffer
		p := newProgress(&buf)

		p.update([]generation.Chunk{{Text: "preamble"}})
		p.update([]generation.Chunk{{Text: "preamble"}, {Label: "Outlining"}})
		p.update([]generation.Chunk{{Text: "preamble"}, {Label: "Outlining", Text: "Once"}})
		p.update([]generation.Chunk{{Text: "preamble"}, {Label: "Outlining", Text: "Once"}, {Label: "Summarizing"}})
		p.update([]generation.Chunk{{}})

		Expect(ansi.Strip(buf.String())).To(Equal("  ▸ Outlining\n  ▸ Summarizing\n"))
	})

	It("waits for the sentinel to be labelled", func() {
		var buf bytes.Buffer
		p := newProgress(&buf)

		p.update([]generation.Chunk{{Label: "Drafting"}})
		p.update([]generation.Chunk{{Label: "Drafting", Text: "It was"}})

		Expect(ansi.Strip(buf.String())).To(Equal("  ▸ Drafting\n"))
	})
})

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var _ = Describe("closeRawOut", func() {
	full := errors.New("no space left on device")

	It("reports a failed close when the command succeeded", func() {
		var err error
		closeRawOut(closerFunc(func() error { return full }), &err)

		Expect(err).To(MatchError(full))
		Expect(err.Error()).To(HavePrefix("closing raw output"))
	})

	It("keeps the command's own error", func() {
		cause := errors.New("stream ended")
		err := cause
		closeRawOut(closerFunc(func() error { return full }), &err)

		Expect(err).To(Equal(cause))
	})

	It("leaves a successful run alone", func() {
		var err error
		closeRawOut(closerFunc(func() error { return nil }), &err)

		Expect(err).NotTo(HaveOccurred())
	})
})

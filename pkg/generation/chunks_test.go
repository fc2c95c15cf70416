package generation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/novelist/pkg/generation"
)

var _ = Describe("ChunkList", func() {
	var list *generation.ChunkList

	BeforeEach(func() {
		list = generation.NewChunkList()
	})

	It("starts with a single empty sentinel", func() {
		Expect(list.Len()).To(Equal(1))
		Expect(list.Snapshot()).To(Equal([]generation.Chunk{{}}))
	})

	It("labels the sentinel instead of pushing a new chunk", func() {
		list.Mark("Outlining")

		Expect(list.Snapshot()).To(Equal([]generation.Chunk{{Label: "Outlining"}}))
	})

	It("pushes a new chunk once the last one is no longer the sentinel", func() {
		list.Mark("Outlining")
		list.Append("Once")
		list.Mark("Editing")

		Expect(list.Snapshot()).To(Equal([]generation.Chunk{
			{Label: "Outlining", Text: "Once"},
			{Label: "Editing"},
		}))
	})

	It("pushes a new chunk after a labelled but empty chunk", func() {
		list.Mark("Outlining")
		list.Mark("Editing")

		Expect(list.Len()).To(Equal(2))
	})

	It("appends text to the sentinel when no stage has been marked", func() {
		list.Append("orphan")

		Expect(list.Snapshot()).To(Equal([]generation.Chunk{{Text: "orphan"}}))

		list.Mark("Outlining")
		Expect(list.Len()).To(Equal(2))
	})

	It("decodes escaped newlines without touching the accumulator", func() {
		list.Mark("Drafting")
		list.Append("first%0Asecond")

		first := list.Snapshot()
		second := list.Snapshot()

		Expect(first[0].Text).To(Equal("first\nsecond"))
		Expect(second).To(Equal(first))
		Expect(list.Raw()[0].Text).To(Equal("first%0Asecond"))
	})

	It("decodes an escape split across appends once both halves arrive", func() {
		list.Mark("Drafting")
		list.Append("a%0")

		Expect(list.Snapshot()[0].Text).To(Equal("a%0"))

		list.Append("Ab")
		Expect(list.Snapshot()[0].Text).To(Equal("a\nb"))
	})

	It("returns snapshots that do not alias internal state", func() {
		list.Mark("Outlining")
		snap := list.Snapshot()
		snap[0].Label = "mutated"

		Expect(list.Snapshot()[0].Label).To(Equal("Outlining"))
	})

	It("resets to the sentinel", func() {
		list.Mark("Outlining")
		list.Append("text")
		list.Mark("Editing")
		list.Reset()

		Expect(list.Snapshot()).To(Equal([]generation.Chunk{{}}))
	})
})

var _ = Describe("DecodeText", func() {
	It("replaces every escaped newline", func() {
		Expect(generation.DecodeText("a%0Ab%0Ac")).To(Equal("a\nb\nc"))
	})

	It("leaves other percent sequences alone", func() {
		Expect(generation.DecodeText("100%25 %0D")).To(Equal("100%25 %0D"))
	})
})

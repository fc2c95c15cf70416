// Package generation folds the event stream of a generator endpoint into an
// ordered list of labelled text chunks for progressive display, and into the
// single structured result that ends the stream.
package generation

import "strings"

// escapedNewline is how the server encodes newlines inside streamed text.
const escapedNewline = "%0A"

// Chunk is one generation stage: the stage label and the text accumulated
// for it so far.
type Chunk struct {
	Label string
	Text  string
}

// ChunkList is the ordered list of chunks for one generation. It is never
// empty: it starts with a single sentinel chunk of two empty strings.
//
// Stored text keeps the server's escape sequences; only Snapshot decodes
// them.
type ChunkList struct {
	chunks []Chunk
}

// NewChunkList returns a list holding only the sentinel chunk.
func NewChunkList() *ChunkList {
	l := &ChunkList{}
	l.Reset()
	return l
}

// Mark starts a new stage. If the last chunk is still the empty sentinel its
// label is overwritten, otherwise a new chunk is pushed.
func (l *ChunkList) Mark(label string) {
	last := len(l.chunks) - 1
	if l.chunks[last] == (Chunk{}) {
		l.chunks[last].Label = label
		return
	}
	l.chunks = append(l.chunks, Chunk{Label: label})
}

// Append adds text to the last chunk.
func (l *ChunkList) Append(text string) {
	l.chunks[len(l.chunks)-1].Text += text
}

// Reset returns the list to its initial single-sentinel state.
func (l *ChunkList) Reset() {
	l.chunks = []Chunk{{}}
}

// Len returns the number of chunks, including the sentinel.
func (l *ChunkList) Len() int {
	return len(l.chunks)
}

// Snapshot returns an independent copy of the list with escape sequences
// decoded. Callers may keep or modify it freely.
func (l *ChunkList) Snapshot() []Chunk {
	out := make([]Chunk, len(l.chunks))
	for i, c := range l.chunks {
		out[i] = Chunk{Label: c.Label, Text: DecodeText(c.Text)}
	}
	return out
}

// Raw returns an independent copy of the list without decoding.
func (l *ChunkList) Raw() []Chunk {
	out := make([]Chunk, len(l.chunks))
	copy(out, l.chunks)
	return out
}

// DecodeText resolves the newline escape sequences used in streamed text.
func DecodeText(s string) string {
	return strings.ReplaceAll(s, escapedNewline, "\n")
}

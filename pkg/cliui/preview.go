package cliui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// Preview redraws a single status line with the current stage label and the
// tail of its text. Finished stages are kept on their own line.
type Preview struct {
	w     io.Writer
	width int

	mu    sync.Mutex
	label string
	drawn bool
}

// NewPreview returns a Preview drawing on w, at most width cells wide.
func NewPreview(w io.Writer, width int) *Preview {
	return &Preview{w: w, width: width}
}

// Update draws label and text. Labels take at most half the width. When
// label differs from the previous one the previous line is left in place and
// a new line is started.
func (p *Preview) Update(label, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drawn && label != p.label {
		fmt.Fprint(p.w, "\n")
	}
	p.label = label

	prefix := "  "
	if label != "" {
		prefix += LabelStyle.Render(Truncate(label, p.width/2)) + " "
	}
	room := p.width - ansi.StringWidth(prefix)
	line := prefix + DimStyle.Render(Tail(Flatten(text), room))

	fmt.Fprint(p.w, "\r"+ansi.EraseEntireLine+line)
	p.drawn = true
}

// Done ends the current line.
func (p *Preview) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drawn {
		fmt.Fprint(p.w, "\n")
		p.drawn = false
		p.label = ""
	}
}

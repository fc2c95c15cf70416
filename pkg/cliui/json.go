package cliui

import (
	"fmt"
	"io"

	"github.com/tidwall/pretty"
)

// JSON writes data indented, colorized when w is a terminal.
func JSON(w io.Writer, data []byte) error {
	out := pretty.Pretty(data)
	if IsTerminal(w) {
		out = pretty.Color(out, pretty.TerminalStyle)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

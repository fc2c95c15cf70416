// Package generatecmder provides the generate command, which streams a
// generation from the server and prints its result.
package generatecmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	getcmder "github.com/papercomputeco/novelist/cmd/novelist/get"
	"github.com/papercomputeco/novelist/pkg/client"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/generation"
	"github.com/papercomputeco/novelist/pkg/session"
)

const generateLongDesc string = `Generate the content of a story, outline or scene.

Generation stages and their text are shown live on stderr while the server
streams them. The generated resource is printed to stdout as JSON when the
stream completes.

If the stream ends early the generation has failed. The server may still
have saved part of the work, so the resource is fetched again and printed
before the command exits with an error.

Kinds: story, story-outline, chapter-outline, scene-outline, scene.

Examples:
  novelist generate story 1
  novelist generate chapter-outline 9 --raw-out stream.txt
  novelist generate scene 4 --quiet > scene.json`

type generateCommander struct {
	rawOut string
	quiet  bool
}

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate <kind> <id>",
		Short: "Generate content for a resource",
		Long:  generateLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := client.ParseKind(args[0])
			if err != nil {
				return err
			}
			if !kind.Generative() {
				return fmt.Errorf("%s cannot be generated", kind.Label())
			}
			id, err := client.ParseID(args[1])
			if err != nil {
				return err
			}
			return cmder.run(cmd, kind, id)
		},
		ValidArgsFunction: getcmder.CompleteKinds,
	}

	cmd.Flags().StringVar(&cmder.rawOut, "raw-out", "", "Write the raw event stream to this file")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Do not show generation progress")

	return cmd
}

func (c *generateCommander) run(cmd *cobra.Command, kind client.Kind, id int) (err error) {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	s, err := session.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.EnsureLogin(ctx); err != nil {
		return err
	}
	s.Watch(ctx)

	opts := client.GenerateOptions{}
	if !c.quiet {
		p := newProgress(stderr)
		opts.OnChunks = p.update
		defer p.done()
	}
	if c.rawOut != "" {
		f, createErr := os.Create(c.rawOut)
		if createErr != nil {
			return fmt.Errorf("creating raw output: %w", createErr)
		}
		defer closeRawOut(f, &err)
		opts.Tee = f
	}

	start := time.Now()
	result, err := s.Client.Generate(ctx, kind, id, opts)

	switch {
	case errors.Is(err, generation.ErrIncomplete):
		s.Logger().Warn("generation stream ended early; fetching saved state", "kind", string(kind), "id", id)
		var saved json.RawMessage
		msg := fmt.Sprintf("Fetching saved %s #%d", kind.Label(), id)
		if getErr := cliui.Step(stderr, msg, func() error {
			return s.Client.Get(ctx, kind, id, &saved)
		}); getErr != nil {
			s.Logger().Warn("fetching resource after failed generation", "error", getErr)
		} else if printErr := cliui.JSON(stdout, saved); printErr != nil {
			return printErr
		}
		return fmt.Errorf("failed to generate %s %d: %w", kind.Label(), id, err)

	case err != nil:
		return fmt.Errorf("failed to generate %s %d: %w", kind.Label(), id, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if !c.quiet {
		fmt.Fprintf(stderr, "  %s Generated %s %s %s\n",
			cliui.SuccessMark,
			kind.Label(),
			cliui.NameStyle.Render(fmt.Sprintf("#%d", id)),
			cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(time.Since(start)))),
		)
	}

	return cliui.JSON(stdout, data)
}

// closeRawOut closes the raw capture file, reporting a failed close through
// err unless the command already failed.
func closeRawOut(f io.Closer, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing raw output: %w", cerr)
	}
}

// progress shows generation stages. On a terminal the current stage is
// redrawn in place with the tail of its text; elsewhere each stage label is
// printed once.
type progress struct {
	w         io.Writer
	preview   *cliui.Preview
	announced int
}

func newProgress(w io.Writer) *progress {
	p := &progress{w: w}
	if cliui.IsTerminal(w) {
		p.preview = cliui.NewPreview(w, cliui.Width(w))
	}
	return p
}

func (p *progress) update(chunks []generation.Chunk) {
	if len(chunks) == 1 && chunks[0] == (generation.Chunk{}) {
		p.done()
		return
	}

	if p.preview != nil {
		last := chunks[len(chunks)-1]
		p.preview.Update(last.Label, last.Text)
		return
	}

	// An unlabelled chunk can still be labelled while it is the last one.
	for p.announced < len(chunks) {
		label := chunks[p.announced].Label
		if label == "" && p.announced == len(chunks)-1 {
			break
		}
		if label != "" {
			fmt.Fprintf(p.w, "  %s %s\n", cliui.LabelStyle.Render("▸"), label)
		}
		p.announced++
	}
}

func (p *progress) done() {
	if p.preview != nil {
		p.preview.Done()
	}
	p.announced = 0
}

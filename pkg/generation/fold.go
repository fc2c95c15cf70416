package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/papercomputeco/novelist/pkg/logger"
	"github.com/papercomputeco/novelist/pkg/sse"
)

// Event names emitted by the generator endpoints.
const (
	// EventMidPoint names the start of a new generation stage; its data is
	// the human readable stage label.
	EventMidPoint = "mid_point"

	// EventResult carries the final JSON object and ends the stream.
	EventResult = "result"
)

// ErrIncomplete is returned when the stream ends before a result record
// arrives. Callers should treat it as a failed generation and re-fetch the
// authoritative resource.
var ErrIncomplete = errors.New("event stream ended without a result")

// Handlers receive progress from a Folder.
type Handlers struct {
	// OnChunks is called after every change to the chunk list with a fresh,
	// decoded copy of it.
	OnChunks func([]Chunk)

	// OnResult is called once with the terminal result.
	OnResult func(Result)
}

// Config configures a Folder.
type Config struct {
	Handlers

	// PartialName is the event name of continuation records. Defaults to
	// sse.DefaultPartialName.
	PartialName string

	// Tee, if set, receives a verbatim copy of the raw stream.
	Tee io.Writer

	Logger *slog.Logger
}

// Folder consumes one generator stream. It is not safe for concurrent Fold
// calls; Chunks may be called from any goroutine.
type Folder struct {
	handlers    Handlers
	partialName string
	tee         io.Writer
	logger      *slog.Logger

	mu     sync.Mutex
	chunks *ChunkList
}

// NewFolder creates a Folder from cfg. A nil cfg uses defaults.
func NewFolder(cfg *Config) *Folder {
	if cfg == nil {
		cfg = &Config{}
	}

	f := &Folder{
		handlers:    cfg.Handlers,
		partialName: cfg.PartialName,
		tee:         cfg.Tee,
		logger:      cfg.Logger,
		chunks:      NewChunkList(),
	}
	if f.partialName == "" {
		f.partialName = sse.DefaultPartialName
	}
	if f.tee == nil {
		f.tee = io.Discard
	}
	if f.logger == nil {
		f.logger = logger.Nop()
	}

	return f
}

// Fold is shorthand for NewFolder(&Config{Handlers: h}).Fold(ctx, r).
func Fold(ctx context.Context, r io.Reader, h Handlers) (Result, error) {
	return NewFolder(&Config{Handlers: h}).Fold(ctx, r)
}

// Fold reads r one record at a time until the result record arrives and
// returns it. Read errors are returned immediately and leave the chunk list
// in its partial state; a stream that ends without a result returns
// ErrIncomplete.
//
// Fold never reads r concurrently. To abort a pending read, cancel the
// request that produced r; ctx is additionally checked between records.
func (f *Folder) Fold(ctx context.Context, r io.Reader) (Result, error) {
	reader := sse.NewTeeReader(r, f.tee, sse.WithPartialName(f.partialName))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ev, err := reader.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("reading event stream: %w", err)
		}
		if ev == nil {
			return nil, ErrIncomplete
		}

		switch e := ev.(type) {
		case sse.Message:
			switch e.Name {
			case EventMidPoint:
				f.logger.Debug("generation stage", "label", e.Data)
				f.update(func(l *ChunkList) { l.Mark(e.Data) })

			case EventResult:
				result, err := ParseResult(e.Data)
				if err != nil {
					return nil, err
				}
				if f.handlers.OnResult != nil {
					f.handlers.OnResult(result)
				}
				f.update(func(l *ChunkList) { l.Reset() })
				return result, nil

			default:
				f.logger.Debug("unhandled event", "event", e.Name, "data", e.Data)
			}

		case sse.Partial:
			if e.Name != f.partialName {
				f.logger.Debug("unhandled partial", "event", e.Name)
				continue
			}
			f.update(func(l *ChunkList) { l.Append(e.Data) })

		case sse.Reconnect:
			f.logger.Debug("ignoring reconnect directive", "interval", e.Interval)

		default:
			f.logger.Debug("unhandled event type", "type", fmt.Sprintf("%T", ev))
		}
	}
}

// Chunks returns a decoded copy of the current chunk list.
func (f *Folder) Chunks() []Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chunks.Snapshot()
}

func (f *Folder) update(mutate func(*ChunkList)) {
	f.mu.Lock()
	mutate(f.chunks)
	snapshot := f.chunks.Snapshot()
	f.mu.Unlock()

	if f.handlers.OnChunks != nil {
		f.handlers.OnChunks(snapshot)
	}
}

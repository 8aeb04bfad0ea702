package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/slicecap/slicecap/pcap"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result records the outcome of one slice's subprocess.
type Result struct {
	Part    pcap.Part
	Command string
	Err     error
}

// Dispatcher runs one subprocess per planned slice, at most Parallel at
// a time, streaming the pcap file header followed by the slice's bytes
// into each subprocess's standard input.
type Dispatcher struct {
	Parallel int
	Logger   *zap.Logger
}

func New(parallel int, logger *zap.Logger) *Dispatcher {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Parallel: parallel, Logger: logger}
}

// Run dispatches every part and returns one Result per part, in part
// order.  Each subprocess reads its slice with independent positioned
// reads of file, so no file position is shared across workers, and a
// slow consumer throttles only its own slot.  A failing subprocess is
// recorded in its Result and never cancels its siblings.
func (d *Dispatcher) Run(ctx context.Context, file io.ReaderAt, header []byte, parts []pcap.Part, tmpl *Template) []Result {
	results := make([]Result, len(parts))
	var g errgroup.Group
	g.SetLimit(d.Parallel)
	for i, part := range parts {
		i, part := i, part
		command := tmpl.Render(part)
		results[i] = Result{Part: part, Command: command}
		g.Go(func() error {
			d.Logger.Info("dispatching slice",
				zap.Int("slice_id", part.ID),
				zap.Int64("offset", part.Offset),
				zap.Int64("size", part.Length),
				zap.String("command", command))
			stdin := io.MultiReader(bytes.NewReader(header), part.NewReader(file))
			p := newProcess(ctx, stdin, command)
			err := p.start()
			if err == nil {
				err = p.wait()
			}
			if err != nil {
				d.Logger.Error("slice command failed",
					zap.Int("slice_id", part.ID),
					zap.Error(err))
				results[i].Err = err
			}
			return nil
		})
	}
	g.Wait()
	return results
}

// Errors aggregates the failures in results into a single error, or nil
// if every subprocess succeeded.
func Errors(results []Result) error {
	var err error
	for _, r := range results {
		if r.Err != nil {
			err = multierr.Append(err, fmt.Errorf("slice %d (%s): %w", r.Part.ID, r.Command, r.Err))
		}
	}
	return err
}

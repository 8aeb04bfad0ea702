package slice

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/mccanne/charm"
	"github.com/slicecap/slicecap/cmd/slicecap/root"
	"github.com/slicecap/slicecap/dispatch"
	"github.com/slicecap/slicecap/pcap"
	"github.com/slicecap/slicecap/pkg/fs"
	"github.com/slicecap/slicecap/pkg/nano"
)

var Slice = &charm.Spec{
	Name:  "slice",
	Usage: "slice [options] -r file.pcap command [args...]",
	Short: "slice a pcap and pipe each piece to a subprocess",
	Long: `
The slice command divides the input pcap into -n contiguous pieces cut at
packet record boundaries and runs the given command once per piece with the
piece's bytes, prefixed by the original pcap file header, on its standard
input.  Each piece is therefore a complete, independently valid pcap
stream.  The command is a template run with the shell: the placeholders
{OFFSET}, {SIZE}, and {SLICE_ID} are replaced with the piece's byte offset
within the source file, its size in bytes, and its sequential id.  For
example,

  slicecap slice -r big.pcap -n 8 gzip -c ">" piece-{SLICE_ID}.pcap.gz

compresses the input as eight independent pcap files.

Cut points are chosen near evenly spaced byte targets.  When packets near a
target include an idle period of at least -g seconds, the cut is placed at
the first packet after the idle period so a burst of related traffic stays
in one piece.  When no such idle period exists nearby, the nearest record
boundary is used instead.

At most -p commands run at once.  A command that exits non-zero marks its
piece as failed but does not stop the other pieces; slicecap exits non-zero
if any piece failed.
`,
	New: New,
}

func init() {
	root.Slicecap.Add(Slice)
}

type Command struct {
	*root.Command
	inputFile string
	nslice    int
	maxGap    string
	parallel  int
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.StringVar(&c.inputFile, "r", "", "source pcap file (required)")
	f.IntVar(&c.nslice, "n", 2, "number of pieces to slice the pcap into")
	f.StringVar(&c.maxGap, "g", "3600", "minimum idle gap in seconds for a preferred cut point")
	f.IntVar(&c.parallel, "p", runtime.GOMAXPROCS(0), "maximum number of concurrent subprocesses")
	return c, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if c.inputFile == "" {
		return errors.New("slicecap slice: no input file (use -r)")
	}
	if c.nslice < 1 {
		return errors.New("slicecap slice: slice count must be at least 1")
	}
	if c.parallel < 1 {
		return errors.New("slicecap slice: parallelism must be at least 1")
	}
	maxGap, err := nano.Parse([]byte(c.maxGap))
	if err != nil {
		return fmt.Errorf("slicecap slice: -g %s: %w", c.maxGap, err)
	}
	tmpl, err := dispatch.ParseTemplate(args)
	if err != nil {
		return err
	}
	in, err := fs.Open(c.inputFile)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	hdr, parts, err := pcap.PlanFile(in, info.Size(), c.nslice, time.Duration(maxGap), c.Logger())
	if err != nil {
		return err
	}
	d := dispatch.New(c.parallel, c.Logger())
	results := d.Run(context.Background(), in, hdr.Bytes(), parts, tmpl)
	return dispatch.Errors(results)
}

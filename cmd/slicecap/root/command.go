package root

import (
	"flag"

	"github.com/mccanne/charm"
	"github.com/slicecap/slicecap/cli"
	"github.com/slicecap/slicecap/cli/logflags"
	"go.uber.org/zap"
)

var Slicecap = &charm.Spec{
	Name:  "slicecap",
	Usage: "slicecap [global options] command [options] [arguments...]",
	Short: "slicecap cuts a pcap into independently valid pieces",
	Long: `
The slicecap command splits a large pcap file into contiguous slices cut at
packet record boundaries and pipes each slice, prefixed with the original
file header, to a subprocess for parallel post-processing such as
compression or per-slice analysis.  Slice boundaries prefer idle periods in
the capture so a bursty exchange is not split across two files.
`,
	New: New,
}

func init() {
	Slicecap.Add(charm.Help)
}

type Command struct {
	charm.Command
	cli      cli.Flags
	logflags logflags.Flags
	logger   *zap.Logger
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	c.cli.SetFlags(f)
	c.logflags.SetFlags(f)
	return c, nil
}

func (c *Command) Init() error {
	if err := c.cli.Init(); err != nil {
		return err
	}
	logger, err := c.logflags.Open()
	if err != nil {
		return err
	}
	c.logger = logger
	return nil
}

func (c *Command) Cleanup() {
	if c.logger != nil {
		c.logger.Sync()
	}
	c.cli.Cleanup()
}

// Logger is valid after Init.
func (c *Command) Logger() *zap.Logger {
	return c.logger
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	return Slicecap.Exec(c, []string{"help"})
}

package plan

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/mccanne/charm"
	"github.com/slicecap/slicecap/cmd/slicecap/root"
	"github.com/slicecap/slicecap/pcap"
	"github.com/slicecap/slicecap/pkg/fs"
	"github.com/slicecap/slicecap/pkg/nano"
)

var Plan = &charm.Spec{
	Name:  "plan",
	Usage: "plan [options] -r file.pcap",
	Short: "print the slice plan without running any subprocess",
	Long: `
The plan command computes the same cut points the slice command would use
and prints the resulting plan as JSON, one entry per piece with its
slice_id, byte offset, and length.  The input file is only read, never
modified, and no subprocess is run.  This is useful for inspecting where
the cuts land before kicking off an expensive parallel job.
`,
	New: New,
}

func init() {
	root.Slicecap.Add(Plan)
}

type Command struct {
	*root.Command
	inputFile  string
	nslice     int
	maxGap     string
	outputFile string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.StringVar(&c.inputFile, "r", "", "source pcap file (required)")
	f.IntVar(&c.nslice, "n", 2, "number of pieces to slice the pcap into")
	f.StringVar(&c.maxGap, "g", "3600", "minimum idle gap in seconds for a preferred cut point")
	f.StringVar(&c.outputFile, "x", "-", "output file for the plan or - for stdout")
	return c, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if len(args) != 0 {
		return errors.New("slicecap plan takes no arguments")
	}
	if c.inputFile == "" {
		return errors.New("slicecap plan: no input file (use -r)")
	}
	if c.nslice < 1 {
		return errors.New("slicecap plan: slice count must be at least 1")
	}
	maxGap, err := nano.Parse([]byte(c.maxGap))
	if err != nil {
		return fmt.Errorf("slicecap plan: -g %s: %w", c.maxGap, err)
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
	_, parts, err := pcap.PlanFile(in, info.Size(), c.nslice, time.Duration(maxGap), c.Logger())
	if err != nil {
		return err
	}
	if c.outputFile == "-" {
		b, err := json.Marshal(parts)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
	return fs.MarshalJSONFile(parts, c.outputFile, 0644)
}

package info

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mccanne/charm"
	"github.com/slicecap/slicecap/cmd/slicecap/root"
	"github.com/slicecap/slicecap/pcap/pcapio"
	"github.com/slicecap/slicecap/pkg/fs"
)

var Info = &charm.Spec{
	Name:  "info",
	Usage: "info <input_pcap>",
	Short: "prints info about a pcap",
	Long: `
The info command reads through the entire pcap file and prints useful
information about the pcap's contents.
`,
	New: New,
}

func init() {
	root.Slicecap.Add(Info)
}

type Command struct {
	*root.Command
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	return &Command{Command: parent.(*root.Command)}, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("slicecap info takes a single file as input")
	}
	in, err := fs.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()
	reader, err := pcapio.NewReader(in)
	if err != nil {
		return err
	}
	hdr := reader.FileHeader()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "Pcap version:\t%s\n", hdr.Version())
	fmt.Fprintf(w, "Link type:\t%s\n", hdr.LinkType().String())
	fmt.Fprintf(w, "Packet size limit:\t%d\n", hdr.Snaplen)
	resolution := "microsecond"
	if hdr.Nanosecond {
		resolution = "nanosecond"
	}
	fmt.Fprintf(w, "Time resolution:\t%s\n", resolution)
	var pcnt int
	for {
		_, _, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		pcnt++
	}
	fmt.Fprintf(w, "Number of packets:\t%d\n", pcnt)
	fmt.Fprintf(w, "Record region size:\t%d\n", reader.Offset()-pcapio.FileHeaderLen)
	return w.Flush()
}

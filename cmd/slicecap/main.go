package main

import (
	"fmt"
	"os"

	_ "github.com/slicecap/slicecap/cmd/slicecap/info"
	_ "github.com/slicecap/slicecap/cmd/slicecap/plan"
	"github.com/slicecap/slicecap/cmd/slicecap/root"
	_ "github.com/slicecap/slicecap/cmd/slicecap/slice"
	_ "github.com/slicecap/slicecap/cmd/slicecap/ts"
)

func main() {
	if _, err := root.Slicecap.ExecRoot(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// Command refengine evolves numeric state vectors through the recursive
// engine and reports how each run halted.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "refengine: %v\n", err)
		os.Exit(1)
	}
}

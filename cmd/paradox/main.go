// Command paradox drives the quantum paradox experiment pipeline:
// compile catalogs, run recorded counts through the analysis pipeline,
// query stored runs, and replay them byte-for-byte.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/paradox/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command tokamak runs and inspects scenarios through the tokamak CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tokamak/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Package main implements the caseintake command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/caseintake/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

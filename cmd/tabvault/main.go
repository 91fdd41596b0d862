package main

import (
	"os"

	"github.com/danieljhkim/tabvault/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	// Execute prints the error itself.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

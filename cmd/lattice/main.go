package main

import (
	"context"
	"log"
	"os"

	"github.com/latticedb/lattice/cmd/lattice/cmd"
)

// NB: These are set by GoReleaser during a build.
var version string

func main() {
	if err := cmd.Run(context.Background(), version, os.Args); err != nil {
		log.Fatal(err)
	}
}

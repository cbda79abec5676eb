package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// check returns a CLI command that compiles a schema definition in
// declarative mode and reports the first definition error, if any. A schema
// that compiles cleanly prints an object count and exits zero.
//
// Example usage:
//
//	lattice check db/target.sdl
func check() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate a schema definition",
		ArgsUsage: "<schema.sdl>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) != 1 {
				return errors.New("expected exactly one schema file")
			}

			snap, err := compileFile(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Writer, "%s: OK (%d objects)\n", args[0], snap.Len())
			return nil
		},
	}
}

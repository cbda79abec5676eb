package cmd

import (
	"context"
	"os"

	"github.com/latticedb/lattice/pkg/config"
	"github.com/urfave/cli/v3"
)

var currentConfig *config.Config

// Run creates and executes the main lattice CLI application with the given
// version and command-line arguments.
//
// The application auto-detects lattice projects by looking for lattice.yaml
// in the directory given by the global --dir flag. When present, the project
// configuration supplies default schema entrypoints and plan rendering
// options to the subcommands; every location can still be overridden per
// invocation.
//
// Example usage:
//
//	# Diff the configured schemas in the current directory
//	err := Run(ctx, "v1.0.0", []string{"lattice", "diff"})
//
//	# Diff two explicit schema files
//	err := Run(ctx, "v1.0.0", []string{"lattice", "diff", "old.sdl", "new.sdl"})
func Run(ctx context.Context, version string, args []string) error {
	app := &cli.Command{
		Name:  "lattice",
		Usage: "A tool for diffing versioned schema catalogs",
		Description: `lattice compiles declarative schema definitions into immutable catalog
snapshots and computes the ordered command tree migrating one catalog
version into another.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "the project directory",
				Value:       ".",
				DefaultText: "Current directory",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := os.Chdir(cmd.String("dir")); err != nil {
				return ctx, err
			}

			// Not every invocation needs a project; explicit file arguments
			// work without one.
			if _, err := os.Stat("lattice.yaml"); err == nil {
				cfg, err := config.LoadConfigFile("lattice.yaml")
				if err != nil {
					return ctx, err
				}
				currentConfig = cfg
			}

			return ctx, nil
		},
		Commands: []*cli.Command{
			diff(),
			check(),
			inspect(),
		},
	}

	return app.Run(ctx, args)
}

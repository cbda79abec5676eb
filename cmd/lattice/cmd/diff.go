package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/latticedb/lattice/pkg/consts"
	"github.com/latticedb/lattice/pkg/delta"
	"github.com/latticedb/lattice/pkg/format"
	"github.com/latticedb/lattice/pkg/schema"
	"github.com/latticedb/lattice/pkg/sdl"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// diff returns a CLI command that compiles two schema definitions and prints
// the migration plan transforming the first catalog version into the second.
//
// Schema files come either from positional arguments or from the project
// configuration's schemas.current and schemas.target entrypoints.
//
// Example usage:
//
//	# Diff the configured schemas
//	lattice diff
//
//	# Diff two explicit files, writing the plan to a file
//	lattice diff --out plan.txt current.sdl target.sdl
func diff() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compute the migration plan between two schema versions",
		ArgsUsage: "[current.sdl target.sdl]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "write the plan to a file instead of stdout",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			currentPath, targetPath, err := schemaPaths(cmd)
			if err != nil {
				return err
			}

			current, err := compileFile(currentPath)
			if err != nil {
				return err
			}
			target, err := compileFile(targetPath)
			if err != nil {
				return err
			}

			plan := delta.DeltaSnapshots(schema.DefaultRegistry, current, target)

			var buf bytes.Buffer
			if err := format.Format(&buf, planOptions(), plan); err != nil {
				return err
			}

			if out := cmd.String("out"); out != "" {
				if dir := filepath.Dir(out); dir != "." {
					if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
						return errors.Wrapf(err, "failed to create %s", dir)
					}
				}
				return errors.Wrapf(
					os.WriteFile(out, buf.Bytes(), consts.ModeFile),
					"failed to write plan to %s", out)
			}

			_, err = cmd.Writer.Write(buf.Bytes())
			return err
		},
	}
}

// schemaPaths resolves the current and target schema files from arguments or
// project configuration.
func schemaPaths(cmd *cli.Command) (string, string, error) {
	args := cmd.Args().Slice()
	switch len(args) {
	case 2:
		return args[0], args[1], nil
	case 0:
		if currentConfig == nil || currentConfig.Schemas.Current == "" || currentConfig.Schemas.Target == "" {
			return "", "", errors.New("no schema files given and no lattice.yaml with schema entrypoints found")
		}
		return currentConfig.Schemas.Current, currentConfig.Schemas.Target, nil
	default:
		return "", "", errors.Errorf("expected 0 or 2 schema files, got %d", len(args))
	}
}

// compileFile compiles one SDL file into a catalog snapshot, honoring the
// project's declarative-mode setting.
func compileFile(path string) (*schema.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema %s", path)
	}
	if currentConfig != nil && !currentConfig.IsDeclarative() {
		doc, err := sdl.ParseString(path, string(data))
		if err != nil {
			return nil, err
		}
		return applyPermissive(doc)
	}
	return sdl.Compile(path, string(data))
}

// applyPermissive applies a parsed document without requiring explicit
// `inherited` tags.
func applyPermissive(doc *sdl.Document) (*schema.Snapshot, error) {
	snap := schema.NewSnapshot()
	dctx := delta.NewContext(schema.DefaultRegistry)

	for _, decl := range doc.Decls {
		c, err := delta.CommandFromSyntax(decl, dctx)
		if err != nil {
			return nil, err
		}
		if snap, _, err = c.Apply(snap, dctx); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// planOptions derives plan rendering options from the project configuration.
func planOptions() format.Options {
	opts := format.Defaults
	if currentConfig != nil && currentConfig.Plan.Indent != "" {
		opts.Indent = currentConfig.Plan.Indent
	}
	return opts
}

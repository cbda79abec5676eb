package cmd

import (
	"context"

	"github.com/latticedb/lattice/pkg/schema"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// inspect returns a CLI command that compiles a schema definition and dumps
// the resulting catalog snapshot as YAML, one document per object in name
// order. Useful for debugging inheritance merges: both the full and the
// local collections appear in the dump.
//
// Example usage:
//
//	lattice inspect db/target.sdl
func inspect() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Dump the compiled catalog of a schema definition",
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

			enc := yaml.NewEncoder(cmd.Writer)
			defer func() { _ = enc.Close() }()

			for _, obj := range snap.Objects() {
				if err := enc.Encode(dumpObject(obj)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// dumpObject flattens one object into a YAML-friendly map.
func dumpObject(obj *schema.Object) map[string]any {
	out := map[string]any{
		"name": string(obj.Name),
		"kind": string(obj.Kind),
	}
	if len(obj.Bases) > 0 {
		out["bases"] = nameStrings(obj.Bases)
	}
	if obj.Abstract {
		out["abstract"] = true
	}
	if obj.Derived {
		out["derived"] = true
	}

	fields := map[string]any{}
	for _, name := range obj.FieldNames() {
		v, _ := obj.Field(name)
		if v.Coll != nil {
			coll := map[string]string{}
			for _, item := range v.Coll.Items() {
				coll[item.Key] = string(item.Ref)
			}
			fields[name] = coll
			continue
		}
		fields[name] = v.String()
	}
	if len(fields) > 0 {
		out["fields"] = fields
	}

	return out
}

func nameStrings(names []schema.Name) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, string(n))
	}
	return out
}

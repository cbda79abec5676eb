package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/latticedb/lattice/pkg/delta"
	"github.com/pkg/errors"
)

type (
	// Options controls plan rendering.
	Options struct {
		// Indent is the string prepended per nesting level.
		Indent string
	}
)

// Defaults is the standard plan rendering configuration.
var Defaults = Options{Indent: "    "}

// Format renders the given command trees as a human-readable migration
// plan. Output is deterministic for identical inputs: subcommands render in
// their list order, which the delta engine guarantees to be reproducible.
//
// Example:
//
//	cmd := delta.DeltaSnapshots(schema.DefaultRegistry, current, target)
//	var buf bytes.Buffer
//	if err := format.Format(&buf, format.Defaults, cmd); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(buf.String())
func Format(w io.Writer, opts Options, cmds ...delta.Command) error {
	for _, cmd := range cmds {
		if err := formatCommand(w, opts, cmd, 0); err != nil {
			return err
		}
	}
	return nil
}

func formatCommand(w io.Writer, opts Options, cmd delta.Command, depth int) error {
	prefix := strings.Repeat(opts.Indent, depth)

	switch c := cmd.(type) {
	case *delta.Group:
		// Groups are pure sequencing containers and render transparently.
		for _, sub := range c.Subcommands() {
			if err := formatCommand(w, opts, sub, depth); err != nil {
				return err
			}
		}
		return nil

	case *delta.CreateObject:
		var mods []string
		if c.Abstract {
			mods = append(mods, "ABSTRACT")
		}
		if c.DeclaredInherited {
			mods = append(mods, "INHERITED")
		}
		head := fmt.Sprintf("%sCREATE %s%s %s", prefix, modifiers(mods), keyword(string(c.Kind)), c.ClassName)
		if len(c.Bases) > 0 {
			head += " EXTENDING " + joinNames(c.Bases)
		}
		if _, err := fmt.Fprintln(w, head); err != nil {
			return err
		}

	case *delta.AlterObject:
		head := fmt.Sprintf("%sALTER %s %s", prefix, keyword(string(c.Kind)), c.ClassName)
		if _, err := fmt.Fprintln(w, head); err != nil {
			return err
		}
		if c.NewBases != nil {
			if _, err := fmt.Fprintf(w, "%s%sREBASE ON %s\n", prefix, opts.Indent, joinNames(c.NewBases)); err != nil {
				return err
			}
		}

	case *delta.RenameObject:
		if _, err := fmt.Fprintf(w, "%sRENAME %s %s TO %s\n", prefix, keyword(string(c.Kind)), c.ClassName, c.NewName); err != nil {
			return err
		}

	case *delta.DeleteObject:
		if _, err := fmt.Fprintf(w, "%sDELETE %s %s\n", prefix, keyword(string(c.Kind)), c.ClassName); err != nil {
			return err
		}

	case *delta.SetField:
		if _, err := fmt.Fprintf(w, "%sSET %s := %s\n", prefix, c.Field, c.Value); err != nil {
			return err
		}
		return nil

	default:
		return errors.Errorf("cannot format command of type %T", cmd)
	}

	for _, sub := range cmd.Subcommands() {
		if err := formatCommand(w, opts, sub, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func modifiers(mods []string) string {
	if len(mods) == 0 {
		return ""
	}
	return strings.Join(mods, " ") + " "
}

func keyword(kind string) string {
	return strings.ToUpper(kind)
}

func joinNames[T ~string](names []T) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, string(n))
	}
	return strings.Join(parts, ", ")
}

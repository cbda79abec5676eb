package delta

import (
	"github.com/latticedb/lattice/pkg/schema"
	"github.com/pkg/errors"
)

type (
	// Command is a typed mutation request applied to a catalog snapshot.
	// Applying a command is synchronous and all-or-nothing: any invariant
	// violation aborts the whole application and the candidate snapshot is
	// discarded, leaving the prior snapshot untouched.
	Command interface {
		// Target returns the qualified name of the object the command
		// operates on, or "" for pure containers.
		Target() schema.Name

		// Subcommands returns the ordered list of nested commands.
		Subcommands() []Command

		// Add appends subcommands.
		Add(cmds ...Command)

		// HasSubcommands reports whether any subcommands are present.
		HasSubcommands() bool

		// Apply executes the command against snap and returns the resulting
		// snapshot together with the object it created or operated on.
		Apply(snap *schema.Snapshot, ctx *Context) (*schema.Snapshot, *schema.Object, error)
	}

	// CommandBase carries the fields shared by all object commands: the
	// target classname, its kind tag, and the ordered subcommand list.
	CommandBase struct {
		ClassName schema.Name
		Kind      schema.Kind

		subs []Command
	}

	// CreateObject creates a new schema object. For a child declared nested
	// inside an owner the classname is the specialized name and the declared
	// base is resolved (or synthesized) at apply time; for top-level objects
	// Bases lists the declared bases directly.
	CreateObject struct {
		CommandBase

		Bases             []schema.Name
		Abstract          bool
		DeclaredInherited bool
		Source            *schema.SourceInfo
	}

	// AlterObject mutates an existing object: scalar field changes arrive as
	// SetField subcommands, child changes as nested object commands, and a
	// non-nil NewBases triggers rebase propagation.
	AlterObject struct {
		CommandBase

		NewBases []schema.Name
	}

	// RenameObject renames an object, preserving its identity, and rewrites
	// the owner's collections and every non-overriding descendant's full
	// collection.
	RenameObject struct {
		CommandBase

		NewName schema.Name
	}

	// DeleteObject deletes an object. Deleting an owner implicitly deletes
	// every locally declared child not already covered by an explicit
	// subcommand, so no orphaned children survive.
	DeleteObject struct {
		CommandBase
	}

	// Group is a sequencing container: subcommands apply in list order.
	Group struct {
		CommandBase
	}

	// SetField records a single scalar field change on the enclosing object
	// command. It is applied by its parent and cannot be applied standalone.
	SetField struct {
		Field string
		Value schema.FieldValue
	}
)

// Target implements Command.
func (b *CommandBase) Target() schema.Name { return b.ClassName }

// Subcommands implements Command.
func (b *CommandBase) Subcommands() []Command { return b.subs }

// Add implements Command.
func (b *CommandBase) Add(cmds ...Command) { b.subs = append(b.subs, cmds...) }

// HasSubcommands implements Command.
func (b *CommandBase) HasSubcommands() bool { return len(b.subs) > 0 }

// SubcommandsForKind returns the nested object commands whose target kind is
// kind or descends from it, in list order.
func (b *CommandBase) SubcommandsForKind(reg *schema.Registry, kind schema.Kind) []Command {
	var out []Command
	for _, sub := range b.subs {
		ck, ok := commandKind(sub)
		if !ok {
			continue
		}
		if kindIs(reg, ck, kind) {
			out = append(out, sub)
		}
	}
	return out
}

// SetFields returns the scalar field changes of the command, in list order.
func (b *CommandBase) SetFields() []*SetField {
	var out []*SetField
	for _, sub := range b.subs {
		if sf, ok := sub.(*SetField); ok {
			out = append(out, sf)
		}
	}
	return out
}

// Target implements Command.
func (s *SetField) Target() schema.Name { return "" }

// Subcommands implements Command.
func (s *SetField) Subcommands() []Command { return nil }

// Add implements Command.
func (s *SetField) Add(cmds ...Command) {}

// HasSubcommands implements Command.
func (s *SetField) HasSubcommands() bool { return false }

// Apply implements Command. Field changes are applied by the enclosing
// object command; applying one standalone is a programming error.
func (s *SetField) Apply(snap *schema.Snapshot, ctx *Context) (*schema.Snapshot, *schema.Object, error) {
	return nil, nil, errors.Errorf("field mutation %q cannot be applied outside of an object command", s.Field)
}

// commandKind extracts the kind tag of an object command.
func commandKind(cmd Command) (schema.Kind, bool) {
	switch c := cmd.(type) {
	case *CreateObject:
		return c.Kind, true
	case *AlterObject:
		return c.Kind, true
	case *RenameObject:
		return c.Kind, true
	case *DeleteObject:
		return c.Kind, true
	default:
		return "", false
	}
}

// kindIs reports whether kind equals target or descends from it.
func kindIs(reg *schema.Registry, kind, target schema.Kind) bool {
	if kind == target {
		return true
	}
	for _, a := range reg.KindAncestors(kind) {
		if a == target {
			return true
		}
	}
	return false
}

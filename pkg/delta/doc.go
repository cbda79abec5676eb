// Package delta implements typed mutation commands over catalog snapshots
// and the structural diff engine that produces them.
//
// A Command is one node of a mutation tree: Create, Alter, Rename, Delete or
// Group (a sequencing container). Commands are built either from parsed
// syntax declarations (CommandFromSyntax) or by structurally comparing two
// catalog versions (Delta, DeltaSnapshots), and are executed against a
// snapshot through Apply, which returns a new snapshot and never mutates the
// input. Failure semantics are synchronous: any invariant violation aborts
// the whole application and the candidate snapshot is simply discarded.
//
// Typical flow:
//
//	ctx := delta.NewContext(schema.DefaultRegistry)
//	ctx.Declarative = true
//
//	cmd, err := delta.CommandFromSyntax(decl, ctx)
//	if err != nil {
//		// ...
//	}
//
//	snap, _, err = cmd.Apply(snap, ctx)
//
// Diff output ordering is reproducible: within each reference dictionary,
// altered, created and deleted children are emitted in name order, and
// reference dictionaries are visited in declaration order, so two runs over
// identical inputs produce byte-for-byte identical migration scripts.
package delta

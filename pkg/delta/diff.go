package delta

import (
	"sort"

	"github.com/latticedb/lattice/pkg/compare"
	"github.com/latticedb/lattice/pkg/schema"
)

// Delta computes the structural difference between two versions of one
// object as a command tree.
//
// When old is nil the result is a bare Create carrying only the object's own
// field changes, with the children diff in a separate sibling Alter inside a
// Group. Creating the shell first and wiring children afterwards sidesteps
// dependency ordering between mutually referential objects, so no
// topological sorting is needed.
//
// When both versions are present the result is an Alter; callers eliminate
// it if it ends up with no subcommands. Children are diffed per reference
// dictionary over the local collections, in name order within each group,
// for reproducible migration scripts.
func Delta(reg *schema.Registry, oldSnap, newSnap *schema.Snapshot, old, newObj *schema.Object) Command {
	if eq, more := compare.NilCheck(old, newObj); !more && eq {
		return nil
	}

	if newObj == nil {
		return &DeleteObject{CommandBase: CommandBase{ClassName: old.Name, Kind: old.Kind}}
	}

	if old == nil {
		create := createShell(reg, newObj)
		alter := &AlterObject{CommandBase: CommandBase{ClassName: newObj.Name, Kind: newObj.Kind}}
		diffChildren(reg, oldSnap, newSnap, nil, newObj, alter)

		if !alter.HasSubcommands() {
			return create
		}
		group := &Group{}
		group.Add(create, alter)
		return group
	}

	alter := &AlterObject{CommandBase: CommandBase{ClassName: newObj.Name, Kind: newObj.Kind}}
	diffFields(reg, old, newObj, alter)
	if !compare.Slices(old.Bases, newObj.Bases, func(a, b schema.Name) bool { return a == b }) {
		alter.NewBases = append([]schema.Name(nil), newObj.Bases...)
	}
	diffChildren(reg, oldSnap, newSnap, old, newObj, alter)
	return alter
}

// DeltaSnapshots computes the ordered command tree transforming the old
// catalog version into the new one. Top-level objects are matched by name,
// with rename detection for objects whose properties match exactly.
//
// Output order is renames, then every Create shell, then every child-wiring
// Alter, then deletions, each group in name order. Emitting all shells
// before any Alter guarantees that implicitly-creatable base objects exist
// by the time a nested child create resolves them, so replaying the command
// tree never races its own creations.
func DeltaSnapshots(reg *schema.Registry, oldSnap, newSnap *schema.Snapshot) Command {
	group := &Group{}

	oldTop := topLevel(oldSnap)
	newTop := topLevel(newSnap)

	renamed := detectRenames(group, oldTop, newTop)

	var alters []Command
	for _, name := range sortedNames(newTop) {
		if renamed[name] {
			continue
		}

		old, existed := oldTop[name]
		newObj := newTop[name]

		if !existed {
			group.Add(createShell(reg, newObj))
			alter := &AlterObject{CommandBase: CommandBase{ClassName: newObj.Name, Kind: newObj.Kind}}
			diffChildren(reg, oldSnap, newSnap, nil, newObj, alter)
			if alter.HasSubcommands() {
				alters = append(alters, alter)
			}
			continue
		}

		d := Delta(reg, oldSnap, newSnap, old, newObj)
		if a, ok := d.(*AlterObject); ok && (a.HasSubcommands() || a.NewBases != nil) {
			alters = append(alters, a)
		}
	}
	group.Add(alters...)

	for _, name := range sortedNames(oldTop) {
		if renamed[name] {
			continue
		}
		if _, ok := newTop[name]; ok {
			continue
		}
		group.Add(&DeleteObject{CommandBase: CommandBase{ClassName: name, Kind: oldTop[name].Kind}})
	}

	return group
}

// detectRenames matches old-only and new-only objects whose properties match
// exactly, emitting Rename commands instead of Drop plus Create pairs. The
// names consumed on either side are returned.
func detectRenames(group *Group, oldTop, newTop map[schema.Name]*schema.Object) map[schema.Name]bool {
	renamed := make(map[schema.Name]bool)

	for _, oldName := range sortedNames(oldTop) {
		if _, ok := newTop[oldName]; ok {
			continue
		}
		for _, newName := range sortedNames(newTop) {
			if renamed[newName] {
				continue
			}
			if _, ok := oldTop[newName]; ok {
				continue
			}
			if !oldTop[oldName].PropertiesMatch(newTop[newName]) {
				continue
			}
			group.Add(&RenameObject{
				CommandBase: CommandBase{ClassName: oldName, Kind: oldTop[oldName].Kind},
				NewName:     newName,
			})
			renamed[oldName] = true
			renamed[newName] = true
			break
		}
	}

	return renamed
}

// createShell builds a Create carrying only the object's own fields, flags
// and bases. Children are wired separately.
func createShell(reg *schema.Registry, obj *schema.Object) *CreateObject {
	create := &CreateObject{
		CommandBase:       CommandBase{ClassName: obj.Name, Kind: obj.Kind},
		Abstract:          obj.Abstract,
		DeclaredInherited: obj.DeclaredInherited,
		Source:            obj.Source,
	}
	// Nested children re-resolve their base from the short name at apply
	// time (implicit abstract parents included); only top-level objects
	// carry their declared bases in the command.
	if !obj.Name.IsSpecialized() {
		create.Bases = append([]schema.Name(nil), obj.Bases...)
	}
	for _, field := range obj.FieldNames() {
		if skipField(reg, obj.Kind, field) {
			continue
		}
		v, _ := obj.Field(field)
		create.Add(&SetField{Field: field, Value: v})
	}
	return create
}

// diffFields appends SetField subcommands for changed scalar fields.
func diffFields(reg *schema.Registry, old, newObj *schema.Object, out Command) {
	seen := make(map[string]bool)
	fields := append(old.FieldNames(), newObj.FieldNames()...)
	sort.Strings(fields)

	for _, field := range fields {
		if seen[field] || skipField(reg, newObj.Kind, field) {
			continue
		}
		seen[field] = true

		ov, _ := old.Field(field)
		nv, _ := newObj.Field(field)
		if !ov.Equal(nv) {
			out.Add(&SetField{Field: field, Value: nv})
		}
	}
}

// diffChildren diffs the local collections of each reference dictionary,
// appending recursive Alter, Create and Delete subcommands in name order
// within their respective group. Reference dictionaries are visited in
// declaration order.
func diffChildren(reg *schema.Registry, oldSnap, newSnap *schema.Snapshot, old, newObj *schema.Object, out Command) {
	for _, refdict := range reg.RefDicts(newObj.Kind) {
		var oldLocal, newLocal *schema.Collection
		if old != nil {
			oldLocal = old.Collection(refdict.LocalAttr)
		}
		newLocal = newObj.Collection(refdict.LocalAttr)

		// Altered: names present on both sides.
		for _, key := range newLocal.Names() {
			if !oldLocal.Has(key) {
				continue
			}
			oldRef, _ := oldLocal.Get(key)
			newRef, _ := newLocal.Get(key)
			d := Delta(reg, oldSnap, newSnap, oldSnap.Lookup(oldRef), newSnap.Lookup(newRef))
			if d == nil {
				continue
			}
			if a, ok := d.(*AlterObject); ok && !a.HasSubcommands() && a.NewBases == nil {
				continue
			}
			out.Add(d)
		}

		// Created: names present only on the new side, with full contents.
		for _, key := range newLocal.Names() {
			if oldLocal.Has(key) {
				continue
			}
			newRef, _ := newLocal.Get(key)
			if d := Delta(reg, oldSnap, newSnap, nil, newSnap.Lookup(newRef)); d != nil {
				out.Add(d)
			}
		}

		// Deleted: names present only on the old side.
		for _, key := range oldLocal.Names() {
			if newLocal.Has(key) {
				continue
			}
			oldRef, _ := oldLocal.Get(key)
			child := oldSnap.Lookup(oldRef)
			out.Add(&DeleteObject{CommandBase: CommandBase{ClassName: oldRef, Kind: child.Kind}})
		}
	}
}

// skipField reports whether field is a collection field handled by the
// children diff instead of the scalar field diff.
func skipField(reg *schema.Registry, kind schema.Kind, field string) bool {
	spec, ok := reg.FieldSpec(kind, field)
	return ok && (spec.Ephemeral || spec.Coerced)
}

// topLevel returns the user-visible objects of a snapshot: everything that
// is not a specialized child name and not derived by the merge engine.
func topLevel(snap *schema.Snapshot) map[schema.Name]*schema.Object {
	out := make(map[schema.Name]*schema.Object)
	for _, obj := range snap.Objects() {
		if obj.Name.IsSpecialized() || obj.Derived {
			continue
		}
		out[obj.Name] = obj
	}
	return out
}

func sortedNames(objs map[schema.Name]*schema.Object) []schema.Name {
	names := make([]schema.Name, 0, len(objs))
	for name := range objs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

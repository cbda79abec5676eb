package delta_test

import (
	"testing"

	. "github.com/latticedb/lattice/pkg/delta"
	"github.com/latticedb/lattice/pkg/schema"
	"github.com/stretchr/testify/require"
)

// build applies cmds to a fresh snapshot.
func build(t *testing.T, cmds ...Command) *schema.Snapshot {
	t.Helper()
	return apply(t, schema.NewSnapshot(), newCtx(), cmds...)
}

// requireSameCatalog compares two snapshots structurally: same names, and
// per name the same kind, flags, bases and fields. Object identities are
// allowed to differ.
func requireSameCatalog(t *testing.T, want, got *schema.Snapshot) {
	t.Helper()

	require.Equal(t, want.Names(), got.Names())
	for _, name := range want.Names() {
		w := want.Lookup(name)
		g := got.Lookup(name)
		require.Equal(t, w.Kind, g.Kind, "kind of %s", name)
		require.Equal(t, w.Abstract, g.Abstract, "abstract flag of %s", name)
		require.Equal(t, w.Derived, g.Derived, "derived flag of %s", name)
		require.Equal(t, w.DeclaredInherited, g.DeclaredInherited, "inherited flag of %s", name)
		require.Equal(t, w.Bases, g.Bases, "bases of %s", name)
		require.True(t, w.FieldsEqual(g), "fields of %s differ", name)
	}
}

func TestDeltaNilBoth(t *testing.T) {
	require.Nil(t, Delta(schema.DefaultRegistry, nil, nil, nil, nil))
}

func TestDeltaDelete(t *testing.T) {
	snap := build(t, createType("default::User"))

	d := Delta(schema.DefaultRegistry, snap, nil, snap.Lookup("default::User"), nil)
	del, ok := d.(*DeleteObject)
	require.True(t, ok)
	require.Equal(t, schema.Name("default::User"), del.ClassName)
	require.Equal(t, schema.KindObjectType, del.Kind)
}

func TestDeltaCreateBare(t *testing.T) {
	obj := schema.NewObject("default::name", schema.KindProperty)
	obj.Abstract = true
	snap, err := schema.NewSnapshot().Add(obj)
	require.NoError(t, err)

	d := Delta(schema.DefaultRegistry, nil, snap, nil, obj)
	create, ok := d.(*CreateObject)
	require.True(t, ok, "an object without children is a bare Create")
	require.True(t, create.Abstract)
	require.False(t, create.HasSubcommands())
}

func TestDeltaCreateWithChildren(t *testing.T) {
	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))
	snap := build(t, base)

	d := Delta(schema.DefaultRegistry, nil, snap, nil, snap.Lookup("default::Base"))
	group, ok := d.(*Group)
	require.True(t, ok, "an object with children splits into shell plus alter")
	require.Len(t, group.Subcommands(), 2)

	create, ok := group.Subcommands()[0].(*CreateObject)
	require.True(t, ok)
	require.Equal(t, schema.Name("default::Base"), create.ClassName)

	alter, ok := group.Subcommands()[1].(*AlterObject)
	require.True(t, ok)
	require.Len(t, alter.Subcommands(), 1)

	child, ok := alter.Subcommands()[0].(*CreateObject)
	require.True(t, ok)
	require.Equal(t, schema.Specialize("name", "default::Base"), child.ClassName)

	// Nested children re-resolve their base at apply time and carry none.
	require.Empty(t, child.Bases)
	fields := child.SetFields()
	require.Len(t, fields, 2)
	require.Equal(t, schema.FieldSource, fields[0].Field)
	require.Equal(t, schema.FieldType, fields[1].Field)
}

func TestDeltaIdentical(t *testing.T) {
	snap := build(t, createType("default::User"))
	obj := snap.Lookup("default::User")

	d := Delta(schema.DefaultRegistry, snap, snap, obj, obj)
	alter, ok := d.(*AlterObject)
	require.True(t, ok)
	require.False(t, alter.HasSubcommands())
	require.Nil(t, alter.NewBases)
}

func TestDeltaFieldChange(t *testing.T) {
	withType := func(typ string) *schema.Snapshot {
		base := createType("default::Base")
		base.Add(createProperty("default::Base", "name", typ))
		return build(t, base)
	}

	oldSnap := withType("str")
	newSnap := withType("int64")

	childName := schema.Specialize("name", "default::Base")
	d := Delta(schema.DefaultRegistry, oldSnap, newSnap, oldSnap.Lookup(childName), newSnap.Lookup(childName))

	alter, ok := d.(*AlterObject)
	require.True(t, ok)
	fields := alter.SetFields()
	require.Len(t, fields, 1)
	require.Equal(t, schema.FieldType, fields[0].Field)
	require.Equal(t, "int64", *fields[0].Value.Str)
}

func TestDeltaBasesChange(t *testing.T) {
	oldSnap := build(t, createType("default::A"), createType("default::Obj", "default::A"))
	newSnap := build(t, createType("default::B"), createType("default::Obj", "default::B"))

	d := Delta(schema.DefaultRegistry, oldSnap, newSnap,
		oldSnap.Lookup("default::Obj"), newSnap.Lookup("default::Obj"))

	alter, ok := d.(*AlterObject)
	require.True(t, ok)
	require.Equal(t, []schema.Name{"default::B"}, alter.NewBases)
}

func TestDeltaChildAddedAndRemoved(t *testing.T) {
	withProps := func(shorts ...string) *schema.Snapshot {
		base := createType("default::Base")
		for _, s := range shorts {
			base.Add(createProperty("default::Base", s, "str"))
		}
		return build(t, base)
	}

	oldSnap := withProps("name")
	newSnap := withProps("name", "email")

	d := Delta(schema.DefaultRegistry, oldSnap, newSnap,
		oldSnap.Lookup("default::Base"), newSnap.Lookup("default::Base"))

	alter, ok := d.(*AlterObject)
	require.True(t, ok)
	require.Len(t, alter.Subcommands(), 1)
	create, ok := alter.Subcommands()[0].(*CreateObject)
	require.True(t, ok)
	require.Equal(t, schema.Specialize("email", "default::Base"), create.ClassName)

	// The reverse direction deletes the child.
	d = Delta(schema.DefaultRegistry, newSnap, oldSnap,
		newSnap.Lookup("default::Base"), oldSnap.Lookup("default::Base"))

	alter, ok = d.(*AlterObject)
	require.True(t, ok)
	require.Len(t, alter.Subcommands(), 1)
	del, ok := alter.Subcommands()[0].(*DeleteObject)
	require.True(t, ok)
	require.Equal(t, schema.Specialize("email", "default::Base"), del.ClassName)
}

func TestDeltaSnapshotsRoundTripAdds(t *testing.T) {
	oldBase := createType("default::Base")
	oldBase.Add(createProperty("default::Base", "name", "str"))
	oldSnap := build(t, oldBase, createType("default::Child", "default::Base"))

	newBase := createType("default::Base")
	newBase.Add(createProperty("default::Base", "name", "str"))
	extra := createType("default::Extra")
	extra.Add(createProperty("default::Extra", "title", "str"))
	newChild := createType("default::Child", "default::Base")
	newChild.Add(createProperty("default::Child", "email", "str"))
	newSnap := build(t, newBase, newChild, extra)

	cmd := DeltaSnapshots(schema.DefaultRegistry, oldSnap, newSnap)
	replay := apply(t, oldSnap, newCtx(), cmd)

	requireSameCatalog(t, newSnap, replay)
}

func TestDeltaSnapshotsRoundTripInheritedOverride(t *testing.T) {
	makeBase := func() *CreateObject {
		base := createType("default::Base")
		base.Add(createProperty("default::Base", "name", "str"))
		return base
	}

	oldSnap := build(t, makeBase(), createType("default::Child", "default::Base"))

	// The new catalog overrides the inherited property on the child.
	override := createProperty("default::Child", "name", "")
	override.DeclaredInherited = true
	newChild := createType("default::Child", "default::Base")
	newChild.Add(override)
	newSnap := build(t, makeBase(), newChild)

	cmd := DeltaSnapshots(schema.DefaultRegistry, oldSnap, newSnap)

	// The child's side of the plan is a single nested create for the
	// overriding property.
	var alters []*AlterObject
	for _, sub := range cmd.Subcommands() {
		if a, ok := sub.(*AlterObject); ok {
			alters = append(alters, a)
		}
	}
	require.Len(t, alters, 1)
	require.Equal(t, schema.Name("default::Child"), alters[0].ClassName)

	replay := apply(t, oldSnap, newCtx(), cmd)
	requireSameCatalog(t, newSnap, replay)

	merged := replay.Lookup(schema.Specialize("name", "default::Child"))
	require.True(t, merged.Derived)
	require.Equal(t, []schema.Name{schema.Specialize("name", "default::Base")}, merged.Bases)
}

func TestDeltaSnapshotsRoundTripDeletes(t *testing.T) {
	keep := func() *CreateObject {
		base := createType("default::Keep")
		base.Add(createProperty("default::Keep", "name", "str"))
		return base
	}

	extra := createType("default::Extra")
	extra.Add(createProperty("default::Extra", "note", "str"))
	oldSnap := build(t, keep(), extra)
	newSnap := build(t, keep())

	cmd := DeltaSnapshots(schema.DefaultRegistry, oldSnap, newSnap)
	replay := apply(t, oldSnap, newCtx(), cmd)

	requireSameCatalog(t, newSnap, replay)
	require.False(t, replay.Has("default::Extra"))
	require.False(t, replay.Has(schema.Specialize("note", "default::Extra")))
	require.False(t, replay.Has("default::note"), "the orphaned abstract parent goes too")
}

func TestDeltaSnapshotsDetectsRename(t *testing.T) {
	keep := func() *CreateObject {
		base := createType("default::Keep")
		base.Add(createProperty("default::Keep", "name", "str"))
		return base
	}

	oldSnap := build(t, keep(), createType("default::Alpha"))
	newSnap := build(t, keep(), createType("default::Beta"))

	cmd := DeltaSnapshots(schema.DefaultRegistry, oldSnap, newSnap)

	var renames []*RenameObject
	for _, sub := range cmd.Subcommands() {
		if r, ok := sub.(*RenameObject); ok {
			renames = append(renames, r)
		}
	}
	require.Len(t, renames, 1)
	require.Equal(t, schema.Name("default::Alpha"), renames[0].ClassName)
	require.Equal(t, schema.Name("default::Beta"), renames[0].NewName)

	replay := apply(t, oldSnap, newCtx(), cmd)
	requireSameCatalog(t, newSnap, replay)
}

func TestDeltaSnapshotsNoChanges(t *testing.T) {
	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))
	snap := build(t, base)

	cmd := DeltaSnapshots(schema.DefaultRegistry, snap, snap)
	require.False(t, cmd.HasSubcommands())
}

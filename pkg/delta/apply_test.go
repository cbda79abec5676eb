package delta_test

import (
	"testing"

	. "github.com/latticedb/lattice/pkg/delta"
	"github.com/latticedb/lattice/pkg/schema"
	"github.com/stretchr/testify/require"
)

func newCtx() *Context { return NewContext(schema.DefaultRegistry) }

// createType builds a top-level object type creation command.
func createType(name schema.Name, bases ...schema.Name) *CreateObject {
	return &CreateObject{
		CommandBase: CommandBase{ClassName: name, Kind: schema.KindObjectType},
		Bases:       bases,
	}
}

// createProperty builds a nested property creation command on owner.
func createProperty(owner schema.Name, short, typ string) *CreateObject {
	cmd := &CreateObject{
		CommandBase: CommandBase{ClassName: schema.Specialize(short, owner), Kind: schema.KindProperty},
	}
	if typ != "" {
		cmd.Add(&SetField{Field: schema.FieldType, Value: schema.StrValue(typ)})
	}
	return cmd
}

// apply runs cmds in order against snap, failing the test on error.
func apply(t *testing.T, snap *schema.Snapshot, ctx *Context, cmds ...Command) *schema.Snapshot {
	t.Helper()

	var err error
	for _, cmd := range cmds {
		snap, _, err = cmd.Apply(snap, ctx)
		require.NoError(t, err)
	}
	return snap
}

func TestCreateObjectWithChild(t *testing.T) {
	ctx := newCtx()

	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))

	snap, obj, err := base.Apply(schema.NewSnapshot(), ctx)
	require.NoError(t, err)
	require.Equal(t, schema.Name("default::Base"), obj.Name)

	// The abstract parent of the property is synthesized implicitly.
	parent, err := snap.Get("default::name")
	require.NoError(t, err)
	require.True(t, parent.Abstract)
	require.Equal(t, schema.KindProperty, parent.Kind)

	childName := schema.Specialize("name", "default::Base")
	child, err := snap.Get(childName)
	require.NoError(t, err)
	require.Equal(t, []schema.Name{"default::name"}, child.Bases)

	backref, ok := child.Field(schema.FieldSource)
	require.True(t, ok)
	require.Equal(t, schema.Name("default::Base"), *backref.Ref)

	typ, ok := child.Field(schema.FieldType)
	require.True(t, ok)
	require.Equal(t, "str", *typ.Str)

	for _, field := range []string{schema.FieldOwnPointers, schema.FieldPointers} {
		ref, ok := obj.Collection(field).Get("name")
		require.True(t, ok, "missing from %s", field)
		require.Equal(t, childName, ref)
	}
}

func TestCreateObjectDuplicate(t *testing.T) {
	ctx := newCtx()
	snap := apply(t, schema.NewSnapshot(), ctx, createType("default::Base"))

	_, _, err := createType("default::Base").Apply(snap, ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestCreateObjectMissingBaseWithoutImplicitAncestor(t *testing.T) {
	ctx := newCtx()

	// Indexes have no implicit abstract ancestor, so a nested index whose
	// base does not exist is an error.
	owner := createType("default::Base")
	owner.Add(&CreateObject{
		CommandBase: CommandBase{ClassName: schema.Specialize("by_name", "default::Base"), Kind: schema.KindIndex},
	})

	_, _, err := owner.Apply(schema.NewSnapshot(), ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestCreateChildPropagatesToDescendants(t *testing.T) {
	ctx := newCtx()
	snap := schema.NewSnapshot()

	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))
	snap = apply(t, snap, ctx, base, createType("default::Child", "default::Base"))

	child := snap.Lookup("default::Child")
	require.True(t, child.Collection(schema.FieldPointers).Has("name"))

	// Adding a property to the base propagates into every descendant
	// without a local override.
	alter := &AlterObject{CommandBase: CommandBase{ClassName: "default::Base", Kind: schema.KindObjectType}}
	alter.Add(createProperty("default::Base", "email", "str"))
	snap = apply(t, snap, ctx, alter)

	child = snap.Lookup("default::Child")
	ref, ok := child.Collection(schema.FieldPointers).Get("email")
	require.True(t, ok)
	require.Equal(t, schema.Specialize("email", "default::Base"), ref)
	require.False(t, child.Collection(schema.FieldOwnPointers).Has("email"))
}

func TestAlterObjectSetField(t *testing.T) {
	ctx := newCtx()
	snap := schema.NewSnapshot()

	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))
	snap = apply(t, snap, ctx, base)

	childName := schema.Specialize("name", "default::Base")
	alter := &AlterObject{CommandBase: CommandBase{ClassName: childName, Kind: schema.KindProperty}}
	alter.Add(&SetField{Field: schema.FieldRequired, Value: schema.BoolValue(true)})
	snap = apply(t, snap, ctx, alter)

	required, ok := snap.Lookup(childName).Field(schema.FieldRequired)
	require.True(t, ok)
	require.True(t, *required.Bool)
}

func TestAlterObjectRebase(t *testing.T) {
	ctx := newCtx()
	snap := schema.NewSnapshot()

	old := createType("default::Old")
	old.Add(createProperty("default::Old", "legacy", "str"))
	snap = apply(t, snap, ctx, old,
		createType("default::New"),
		createType("default::Obj", "default::Old"))

	require.True(t, snap.Lookup("default::Obj").Collection(schema.FieldPointers).Has("legacy"))

	alter := &AlterObject{
		CommandBase: CommandBase{ClassName: "default::Obj", Kind: schema.KindObjectType},
		NewBases:    []schema.Name{"default::New"},
	}
	snap = apply(t, snap, ctx, alter)

	obj := snap.Lookup("default::Obj")
	require.Equal(t, []schema.Name{"default::New"}, obj.Bases)
	require.False(t, obj.Collection(schema.FieldPointers).Has("legacy"))
}

func TestRenameObjectTopLevel(t *testing.T) {
	ctx := newCtx()
	snap := apply(t, schema.NewSnapshot(), ctx, createType("default::User"))

	id := snap.Lookup("default::User").ID

	rename := &RenameObject{
		CommandBase: CommandBase{ClassName: "default::User", Kind: schema.KindObjectType},
		NewName:     "default::Person",
	}
	snap = apply(t, snap, ctx, rename)

	require.False(t, snap.Has("default::User"))
	require.Equal(t, id, snap.Lookup("default::Person").ID)
}

func TestRenameObjectNested(t *testing.T) {
	ctx := newCtx()
	snap := schema.NewSnapshot()

	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))
	snap = apply(t, snap, ctx, base, createType("default::Child", "default::Base"))

	oldName := schema.Specialize("name", "default::Base")
	newName := schema.Specialize("title", "default::Base")

	alter := &AlterObject{CommandBase: CommandBase{ClassName: "default::Base", Kind: schema.KindObjectType}}
	alter.Add(&RenameObject{
		CommandBase: CommandBase{ClassName: oldName, Kind: schema.KindProperty},
		NewName:     newName,
	})
	snap = apply(t, snap, ctx, alter)

	require.False(t, snap.Has(oldName))
	require.True(t, snap.Has(newName))

	// The collection key moves on the owner and on non-overriding
	// descendants.
	obj := snap.Lookup("default::Base")
	require.False(t, obj.Collection(schema.FieldPointers).Has("name"))
	require.Equal(t, newName, mustRef(t, obj.Collection(schema.FieldPointers), "title"))
	require.Equal(t, newName, mustRef(t, obj.Collection(schema.FieldOwnPointers), "title"))

	child := snap.Lookup("default::Child")
	require.False(t, child.Collection(schema.FieldPointers).Has("name"))
	require.Equal(t, newName, mustRef(t, child.Collection(schema.FieldPointers), "title"))
}

func TestDeleteObjectImplicitChildren(t *testing.T) {
	ctx := newCtx()
	snap := schema.NewSnapshot()

	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))
	base.Add(createProperty("default::Base", "email", "str"))
	snap = apply(t, snap, ctx, base)

	del := &DeleteObject{CommandBase: CommandBase{ClassName: "default::Base", Kind: schema.KindObjectType}}
	snap = apply(t, snap, ctx, del)

	require.False(t, snap.Has("default::Base"))
	require.False(t, snap.Has(schema.Specialize("name", "default::Base")))
	require.False(t, snap.Has(schema.Specialize("email", "default::Base")))

	// The abstract parents are independent objects and survive.
	require.True(t, snap.Has("default::name"))
	require.True(t, snap.Has("default::email"))

	// The implicit child deletions are recorded on the command.
	require.Len(t, del.Subcommands(), 2)
	for _, sub := range del.Subcommands() {
		_, ok := sub.(*DeleteObject)
		require.True(t, ok)
	}
}

func TestDeleteNestedChildCascades(t *testing.T) {
	ctx := newCtx()
	snap := schema.NewSnapshot()

	base := createType("default::Base")
	base.Add(createProperty("default::Base", "name", "str"))
	snap = apply(t, snap, ctx, base, createType("default::Child", "default::Base"))

	childName := schema.Specialize("name", "default::Base")
	alter := &AlterObject{CommandBase: CommandBase{ClassName: "default::Base", Kind: schema.KindObjectType}}
	alter.Add(&DeleteObject{CommandBase: CommandBase{ClassName: childName, Kind: schema.KindProperty}})
	snap = apply(t, snap, ctx, alter)

	require.False(t, snap.Has(childName))
	require.False(t, snap.Lookup("default::Base").Collection(schema.FieldPointers).Has("name"))
	require.False(t, snap.Lookup("default::Child").Collection(schema.FieldPointers).Has("name"))
}

func TestGroupAppliesInOrder(t *testing.T) {
	ctx := newCtx()

	group := &Group{}
	group.Add(createType("default::Base"), createType("default::Child", "default::Base"))

	snap := apply(t, schema.NewSnapshot(), ctx, group)
	require.True(t, snap.Has("default::Base"))
	require.Equal(t, []schema.Name{"default::Base"}, snap.Lookup("default::Child").Bases)
}

func TestSetFieldStandaloneFails(t *testing.T) {
	sf := &SetField{Field: schema.FieldType, Value: schema.StrValue("str")}
	_, _, err := sf.Apply(schema.NewSnapshot(), newCtx())
	require.Error(t, err)
}

func TestContextRecordMerge(t *testing.T) {
	ctx := newCtx()
	ctx.Recording = true

	// Without an active frame the record is dropped.
	old := schema.NewObject("default::name@@default|Child", schema.KindProperty).
		WithField(schema.FieldType, schema.StrValue("str"))
	merged := old.WithField(schema.FieldType, schema.StrValue("int64"))
	ctx.RecordMerge(schema.NewSnapshot(), "default::Child", old, merged)

	alter := &AlterObject{CommandBase: CommandBase{ClassName: "default::Child", Kind: schema.KindObjectType}}
	ctx.Push(&Frame{Op: alter})
	ctx.RecordMerge(schema.NewSnapshot(), "default::Child", old, merged)
	ctx.Pop()

	require.Len(t, alter.Subcommands(), 1)
	nested, ok := alter.Subcommands()[0].(*AlterObject)
	require.True(t, ok)
	require.Len(t, nested.SetFields(), 1)
	require.Equal(t, schema.FieldType, nested.SetFields()[0].Field)
}

func mustRef(t *testing.T, coll *schema.Collection, key string) schema.Name {
	t.Helper()

	ref, ok := coll.Get(key)
	require.True(t, ok, "collection has no key %q", key)
	return ref
}

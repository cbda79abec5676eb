package schema_test

import (
	"testing"

	. "github.com/latticedb/lattice/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestRebaseSwapsInheritedReferences(t *testing.T) {
	snap := addType(t, NewSnapshot(), "Old")
	snap = declareProperty(t, snap, "default::Old", "legacy", "str", false)
	snap = finalize(t, snap, "default::Old", nil)

	snap = addType(t, snap, "New")
	snap = declareProperty(t, snap, "default::New", "modern", "str", false)
	snap = finalize(t, snap, "default::New", nil)

	snap = addType(t, snap, "Obj", "default::Old")
	snap = finalize(t, snap, "default::Obj", nil)
	require.True(t, snap.Lookup("default::Obj").Collection(FieldPointers).Has("legacy"))

	snap, err := DefaultRegistry.Rebase(snap, "default::Obj", []Name{"default::New"}, nil)
	require.NoError(t, err)

	obj := snap.Lookup("default::Obj")
	require.Equal(t, []Name{"default::New"}, obj.Bases)
	require.Equal(t, []Name{"default::New"}, obj.Ancestors)

	// References with no surviving origin are pruned before remerging, so
	// the dropped base's property is gone and the new base's appears.
	require.False(t, obj.Collection(FieldPointers).Has("legacy"))
	require.True(t, obj.Collection(FieldPointers).Has("modern"))
}

func TestRebaseKeepsLocalDeclarations(t *testing.T) {
	snap := addType(t, NewSnapshot(), "Old")
	snap = addType(t, snap, "New")

	snap = addType(t, snap, "Obj", "default::Old")
	snap = declareProperty(t, snap, "default::Obj", "name", "str", false)
	snap = finalize(t, snap, "default::Obj", nil)

	snap, err := DefaultRegistry.Rebase(snap, "default::Obj", []Name{"default::New"}, nil)
	require.NoError(t, err)

	obj := snap.Lookup("default::Obj")
	require.True(t, obj.Collection(FieldOwnPointers).Has("name"))
	require.True(t, obj.Collection(FieldPointers).Has("name"))
}

func TestRebasePropagatesToDescendants(t *testing.T) {
	snap := addType(t, NewSnapshot(), "Old")
	snap = declareProperty(t, snap, "default::Old", "legacy", "str", false)
	snap = finalize(t, snap, "default::Old", nil)

	snap = addType(t, snap, "New")
	snap = declareProperty(t, snap, "default::New", "modern", "str", false)
	snap = finalize(t, snap, "default::New", nil)

	snap = addType(t, snap, "Mid", "default::Old")
	snap = finalize(t, snap, "default::Mid", nil)
	snap = addType(t, snap, "Leaf", "default::Mid")
	snap = finalize(t, snap, "default::Leaf", nil)
	require.True(t, snap.Lookup("default::Leaf").Collection(FieldPointers).Has("legacy"))

	snap, err := DefaultRegistry.Rebase(snap, "default::Mid", []Name{"default::New"}, nil)
	require.NoError(t, err)

	// Descendant linearizations follow the new bases.
	leaf := snap.Lookup("default::Leaf")
	require.Equal(t, []Name{"default::Mid", "default::New"}, leaf.Ancestors)

	require.False(t, leaf.Collection(FieldPointers).Has("legacy"))
	require.True(t, leaf.Collection(FieldPointers).Has("modern"))
}

func TestRebaseUnknownBase(t *testing.T) {
	snap := addType(t, NewSnapshot(), "Obj")

	_, err := DefaultRegistry.Rebase(snap, "default::Obj", []Name{"default::Missing"}, nil)
	require.Error(t, err)
}

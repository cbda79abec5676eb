package schema_test

import (
	"testing"

	. "github.com/latticedb/lattice/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestAddClassrefDuplicate(t *testing.T) {
	snap := addType(t, NewSnapshot(), "Base")
	snap = declareProperty(t, snap, "default::Base", "name", "str", false)

	dup := NewObject(Specialize("name", "default::Base"), KindProperty)
	dup.Source = &SourceInfo{File: "db.sdl", Line: 4, Column: 5}

	_, err := DefaultRegistry.AddClassref(snap, "default::Base", FieldPointers, dup, false)
	require.Error(t, err)

	var dupErr *DuplicateReferenceError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, Name("default::Base"), dupErr.Owner)
	require.Equal(t, FieldPointers, dupErr.Field)
	require.Equal(t, "name", dupErr.Ref)
	require.Equal(t, dup.Source, dupErr.Source)

	// Replace semantics overwrite the existing reference.
	next, err := DefaultRegistry.AddClassref(snap, "default::Base", FieldPointers, dup, true)
	require.NoError(t, err)
	require.Equal(t, dup.Name, collRef(t, next, "default::Base", FieldOwnPointers, "name"))
}

func TestAddClassrefUnknownOwner(t *testing.T) {
	child := NewObject("default::name@@default|Missing", KindProperty)
	_, err := DefaultRegistry.AddClassref(NewSnapshot(), "default::Missing", FieldPointers, child, false)
	require.Error(t, err)
}

func TestDelClassrefCascades(t *testing.T) {
	snap := addType(t, NewSnapshot(), "A")
	snap = declareProperty(t, snap, "default::A", "name", "str", false)
	snap = finalize(t, snap, "default::A", nil)

	snap = addType(t, snap, "B", "default::A")
	snap = finalize(t, snap, "default::B", nil)

	snap = addType(t, snap, "C", "default::B")
	snap = declareProperty(t, snap, "default::C", "name", "str", false)
	snap = finalize(t, snap, "default::C", nil)

	snap, err := DefaultRegistry.DelClassref(snap, "default::A", FieldPointers, "name")
	require.NoError(t, err)

	// The owner loses the reference in both collections.
	a := snap.Lookup("default::A")
	require.False(t, a.Collection(FieldPointers).Has("name"))
	require.False(t, a.Collection(FieldOwnPointers).Has("name"))

	// Non-overriding descendants lose the inherited reference too.
	require.False(t, snap.Lookup("default::B").Collection(FieldPointers).Has("name"))

	// A descendant with its own local override keeps it.
	c := snap.Lookup("default::C")
	require.True(t, c.Collection(FieldPointers).Has("name"))
	require.True(t, c.Collection(FieldOwnPointers).Has("name"))
}

func TestDelClassrefInheritedReferenceStays(t *testing.T) {
	snap := addType(t, NewSnapshot(), "A")
	snap = declareProperty(t, snap, "default::A", "name", "str", false)
	snap = finalize(t, snap, "default::A", nil)

	snap = addType(t, snap, "B", "default::A")
	snap = declareProperty(t, snap, "default::B", "name", "str", false)
	snap = finalize(t, snap, "default::B", nil)

	// B's base still provides the name: only the local declaration goes.
	snap, err := DefaultRegistry.DelClassref(snap, "default::B", FieldPointers, "name")
	require.NoError(t, err)

	b := snap.Lookup("default::B")
	require.False(t, b.Collection(FieldOwnPointers).Has("name"))
	require.True(t, b.Collection(FieldPointers).Has("name"))
}

func TestClassrefOrigin(t *testing.T) {
	snap := addType(t, NewSnapshot(), "A")
	snap = declareProperty(t, snap, "default::A", "name", "str", false)
	snap = finalize(t, snap, "default::A", nil)

	snap = addType(t, snap, "B", "default::A")
	snap = declareProperty(t, snap, "default::B", "name", "str", false)
	snap = finalize(t, snap, "default::B", nil)

	snap = addType(t, snap, "C", "default::B")
	snap = finalize(t, snap, "default::C", nil)

	tests := []struct {
		name     string
		owner    Name
		farthest bool
		expected Name
	}{
		{name: "local declaration wins", owner: "default::B", farthest: false, expected: "default::B"},
		{name: "nearest ancestor", owner: "default::C", farthest: false, expected: "default::B"},
		{name: "farthest ancestor", owner: "default::C", farthest: true, expected: "default::A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin, err := DefaultRegistry.ClassrefOrigin(snap, tt.owner, FieldPointers, "name", tt.farthest)
			require.NoError(t, err)
			require.Equal(t, tt.expected, origin.Name)
		})
	}
}

func TestClassrefOriginNotFound(t *testing.T) {
	snap := addType(t, NewSnapshot(), "A")

	_, err := DefaultRegistry.ClassrefOrigin(snap, "default::A", FieldPointers, "missing", false)
	require.Error(t, err)

	var notFound *OriginNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, Name("default::A"), notFound.Owner)
	require.Equal(t, "missing", notFound.Ref)
}
